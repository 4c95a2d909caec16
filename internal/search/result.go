package search

import (
	"net/url"
	"strings"
)

// Origin records where a result came from.
type Origin string

const (
	// OriginWeb marks results retrieved from a web search provider.
	OriginWeb Origin = "web"
	// OriginUser marks sources the user supplied with the request.
	OriginUser Origin = "user"
	// OriginCatalog marks bibliographic records from a book catalog API.
	OriginCatalog Origin = "catalog"
)

// Result is a single normalized search hit. Providers drop hits with an empty
// title or URL before returning, so both fields are always set.
type Result struct {
	Title   string
	URL     string
	Snippet string
	// Enriched holds fetched full-page text when enrichment succeeded.
	// Empty otherwise; consumers prefer it over Snippet.
	Enriched string
	Origin   Origin
	// ChapterHint optionally ties a user-provided source to a chapter.
	ChapterHint string
}

// MergeUnique merges result groups in order, canonicalizes URLs, trims common
// tracking parameters, and drops duplicate URLs. Within a group the provider
// order is preserved.
func MergeUnique(groups ...[]Result) []Result {
	seen := map[string]struct{}{}
	out := make([]Result, 0, 16)
	for _, g := range groups {
		for _, r := range g {
			if r.URL == "" || r.Title == "" {
				continue
			}
			u, err := url.Parse(strings.TrimSpace(r.URL))
			if err != nil {
				continue
			}
			normalizeURL(u)
			key := u.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			r.URL = key
			out = append(out, r)
		}
	}
	return out
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}
