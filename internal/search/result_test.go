package search

import "testing"

func TestMergeUnique_DropsDuplicatesPreservingOrder(t *testing.T) {
	a := []Result{
		{Title: "A", URL: "https://Example.com/review#top"},
		{Title: "B", URL: "https://example.com/other"},
	}
	b := []Result{
		{Title: "A again", URL: "https://example.com/review"},
		{Title: "C", URL: "https://example.org/c"},
	}
	got := MergeUnique(a, b)
	if len(got) != 3 {
		t.Fatalf("expected 3 unique results, got %d: %+v", len(got), got)
	}
	if got[0].Title != "A" || got[1].Title != "B" || got[2].Title != "C" {
		t.Fatalf("order not preserved: %+v", got)
	}
	if got[0].URL != "https://example.com/review" {
		t.Fatalf("host not lowercased or fragment kept: %q", got[0].URL)
	}
}

func TestMergeUnique_StripsTrackingParams(t *testing.T) {
	got := MergeUnique([]Result{
		{Title: "A", URL: "https://example.com/p?utm_source=x&utm_campaign=y&id=7"},
		{Title: "B", URL: "https://example.com/p?id=7&gclid=zzz"},
	})
	if len(got) != 1 {
		t.Fatalf("tracking params must not defeat dedup, got %d results", len(got))
	}
	if got[0].URL != "https://example.com/p?id=7" {
		t.Fatalf("meaningful params must survive: %q", got[0].URL)
	}
}

func TestMergeUnique_SkipsMalformedAndEmpty(t *testing.T) {
	got := MergeUnique([]Result{
		{Title: "", URL: "https://example.com"},
		{Title: "no url", URL: ""},
		{Title: "bad", URL: "://nope"},
		{Title: "ok", URL: "https://example.com/ok"},
	})
	if len(got) != 1 || got[0].Title != "ok" {
		t.Fatalf("unexpected results: %+v", got)
	}
}
