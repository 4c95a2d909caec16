// Package extract turns fetched HTML into plain text suitable for inclusion
// in a generation prompt.
package extract

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Document is the readable content of a page.
type Document struct {
	Title string
	Text  string
}

// FromHTML extracts readable text, preferring <main> or <article> and falling
// back to <body>. Script, style, nav, footer and consent-banner subtrees are
// skipped; block elements become line breaks; whitespace is collapsed.
func FromHTML(input []byte) Document {
	root, err := html.Parse(bytes.NewReader(input))
	if err != nil || root == nil {
		return Document{}
	}

	doc := Document{Title: pageTitle(root)}
	content := firstElement(root, "main")
	if content == nil {
		content = firstElement(root, "article")
	}
	if content == nil {
		content = firstElement(root, "body")
	}
	if content != nil {
		var b strings.Builder
		walkText(&b, content)
		doc.Text = collapse(b.String())
	}
	return doc
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"nav": true, "footer": true, "aside": true, "iframe": true,
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "pre": true, "blockquote": true,
	"br": true, "hr": true, "div": true, "table": true, "tr": true,
}

func walkText(b *strings.Builder, n *html.Node) {
	if n.Type == html.ElementNode {
		name := strings.ToLower(n.Data)
		if skippedTags[name] || isConsentBanner(n) {
			return
		}
		if blockTags[name] {
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(b, c)
	}
	if n.Type == html.ElementNode && blockTags[strings.ToLower(n.Data)] {
		b.WriteString("\n")
	}
}

func pageTitle(root *html.Node) string {
	t := firstElement(root, "title")
	if t == nil || t.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(t.FirstChild.Data)
}

func firstElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := firstElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func isConsentBanner(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "role" && !strings.HasPrefix(key, "data-") {
			continue
		}
		val := strings.ToLower(attr.Val)
		for _, marker := range []string{"cookie", "consent", "gdpr"} {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

// collapse trims each line, squeezes internal whitespace runs to single
// spaces, and keeps at most one consecutive blank line.
func collapse(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// Truncate caps text at max runes, appending an ellipsis when cut.
// Non-positive max returns text unchanged.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
