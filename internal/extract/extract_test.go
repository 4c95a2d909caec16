package extract

import (
	"strings"
	"testing"
)

func TestFromHTML_PrefersMain(t *testing.T) {
	input := []byte(`<html><head><title>Page Title</title></head><body>
<nav>Navigation junk</nav>
<main><h1>Heading</h1><p>First paragraph.</p><p>Second paragraph.</p></main>
<footer>Footer junk</footer>
</body></html>`)
	doc := FromHTML(input)
	if doc.Title != "Page Title" {
		t.Fatalf("title = %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "First paragraph.") || !strings.Contains(doc.Text, "Heading") {
		t.Fatalf("missing content: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "Navigation junk") || strings.Contains(doc.Text, "Footer junk") {
		t.Fatalf("boilerplate leaked: %q", doc.Text)
	}
}

func TestFromHTML_FallsBackToBody(t *testing.T) {
	doc := FromHTML([]byte(`<html><body><p>本の紹介ページです。</p><script>alert(1)</script></body></html>`))
	if !strings.Contains(doc.Text, "本の紹介ページです。") {
		t.Fatalf("missing body text: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "alert") {
		t.Fatalf("script leaked: %q", doc.Text)
	}
}

func TestFromHTML_SkipsConsentBanner(t *testing.T) {
	doc := FromHTML([]byte(`<html><body>
<div class="cookie-consent">We use cookies</div>
<p>Real content</p>
</body></html>`))
	if strings.Contains(doc.Text, "cookies") {
		t.Fatalf("consent banner leaked: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "Real content") {
		t.Fatalf("content dropped: %q", doc.Text)
	}
}

func TestFromHTML_CollapsesWhitespace(t *testing.T) {
	doc := FromHTML([]byte("<html><body><p>a   b\t\tc</p><p></p><p></p><p>d</p></body></html>"))
	if strings.Contains(doc.Text, "  ") {
		t.Fatalf("whitespace not collapsed: %q", doc.Text)
	}
	if strings.Contains(doc.Text, "\n\n\n") {
		t.Fatalf("blank lines not squeezed: %q", doc.Text)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("こんにちは", 3); got != "こんに…" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Fatalf("got %q", got)
	}
}
