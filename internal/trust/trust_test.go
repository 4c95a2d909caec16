package trust

import (
	"testing"

	"github.com/harutofu/shiori/internal/search"
)

func TestIsTrusted(t *testing.T) {
	domains := []string{"amazon.co.jp", "hanmoto.com"}
	cases := []struct {
		url  string
		want bool
	}{
		{"https://amazon.co.jp/dp/123", true},
		{"https://www.amazon.co.jp/dp/123", true},
		{"https://AMAZON.CO.JP/dp/123", true},
		{"https://hanmoto.com/bd/isbn/456", true},
		{"https://notamazon.co.jp/dp/123", false},
		{"https://example.com/amazon.co.jp", false},
		{"://broken", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := IsTrusted(tc.url, domains); got != tc.want {
			t.Errorf("IsTrusted(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestRank_StablePartition(t *testing.T) {
	in := []search.Result{
		{Title: "untrusted a", URL: "https://blog.example.com/a"},
		{Title: "trusted b", URL: "https://amazon.co.jp/b"},
		{Title: "untrusted c", URL: "https://other.example.com/c"},
		{Title: "trusted d", URL: "https://hanmoto.com/d"},
	}
	got := Rank(in, []string{"amazon.co.jp", "hanmoto.com"})
	want := []string{"trusted b", "trusted d", "untrusted a", "untrusted c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(got))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestRank_NoDomainsIsIdentity(t *testing.T) {
	in := []search.Result{
		{Title: "a", URL: "https://x.example.com"},
		{Title: "b", URL: "https://amazon.co.jp"},
	}
	got := Rank(in, nil)
	for i := range in {
		if got[i].Title != in[i].Title {
			t.Fatalf("ranking with no domains must not reorder: %+v", got)
		}
	}
}

func TestSiteBias(t *testing.T) {
	got := SiteBias([]string{"tenki.jp", " jma.go.jp ", ""})
	want := "site:tenki.jp OR site:jma.go.jp"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if SiteBias(nil) != "" {
		t.Fatal("empty input must yield empty clause")
	}
}
