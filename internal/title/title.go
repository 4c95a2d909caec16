// Package title derives short conversation headings from generated text.
package title

import "strings"

// DefaultTitle is used when nothing usable survives cleaning.
const DefaultTitle = "会話"

// DefaultMaxRunes caps how long a conversation heading may be.
const DefaultMaxRunes = 18

// forbidden characters are stripped before truncation: quotes, brackets and
// separators that model output tends to wrap headings in.
const forbidden = "「」『』\"'。、：:｜|/\\"

// CleanAndShorten strips decoration from a model-produced heading and caps it
// at max runes, appending an ellipsis when cut. max <= 0 means
// DefaultMaxRunes. An empty result yields DefaultTitle.
func CleanAndShorten(text string, max int) string {
	if max <= 0 {
		max = DefaultMaxRunes
	}
	// Keep only the first line; models sometimes add explanations after.
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.Map(func(r rune) rune {
		if strings.ContainsRune(forbidden, r) {
			return -1
		}
		if r == '　' {
			return ' '
		}
		return r
	}, text)
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultTitle
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
