package route

import (
	"regexp"
	"strings"
)

// BookRequest is a parsed book-summary request.
type BookRequest struct {
	Title  string
	Author string
	// TOC is the user-supplied table of contents, one chapter per line.
	TOC string
}

var (
	quotedTitle = regexp.MustCompile(`[「『]([^」』]+)[」』]|"([^"]+)"|“([^”]+)”`)
	// authorBefore matches "著者の『タイトル』" style, capturing the name
	// immediately before the possessive particle and the opening quote.
	authorBefore = regexp.MustCompile(`([\p{Han}\p{Hiragana}\p{Katakana}A-Za-z][\p{Han}\p{Hiragana}\p{Katakana}A-Za-z0-9・\. ]*?)の\s*[「『"“]`)
	authorMarker = regexp.MustCompile(`(?:著者|作者|author)[:：は]\s*([^\s、。]+)`)
	tocLine      = regexp.MustCompile(`^(?:序章|終章|プロローグ|エピローグ|第[0-9０-９一二三四五六七八九十百]+[章部話]|Chapter\s+\d+)`)
)

var summarizeWords = []string{"要約", "あらすじ", "内容", "まとめて", "について", "教えて", "summary", "summarize", "about"}
var bookWords = []string{"本", "書籍", "小説", "著書", "book", "novel"}

// ParseBookRequest reports whether message asks about a book and, if so,
// extracts the title, an author when one is recognizable, and any pasted
// table of contents. A quoted title is sufficient on its own; unquoted
// requests need both a summarize word and a book word.
func ParseBookRequest(message string) (BookRequest, bool) {
	req := BookRequest{TOC: extractTOC(message)}
	if m := quotedTitle.FindStringSubmatch(message); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				req.Title = strings.TrimSpace(g)
				break
			}
		}
	}
	if req.Title == "" {
		// No quotes: only treat as a book request when the message both asks
		// for a summary and names books explicitly; the title is left for
		// the caller to ask about.
		lower := strings.ToLower(message)
		if !containsAny(lower, summarizeWords) || !containsAny(lower, bookWords) {
			return BookRequest{}, false
		}
		return req, true
	}

	if m := authorMarker.FindStringSubmatch(message); m != nil {
		req.Author = strings.TrimSpace(m[1])
	} else if m := authorBefore.FindStringSubmatch(message); m != nil {
		req.Author = strings.TrimSpace(m[1])
	}
	return req, true
}

// extractTOC collects lines that look like chapter headings, preserving
// their order. Fewer than two matching lines is not a table of contents.
func extractTOC(message string) string {
	var chapters []string
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		if tocLine.MatchString(line) {
			chapters = append(chapters, line)
		}
	}
	if len(chapters) < 2 {
		return ""
	}
	return strings.Join(chapters, "\n")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
