package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const googleCSEEndpoint = "https://www.googleapis.com/customsearch/v1"

// GoogleCSE implements Provider against the Google Custom Search JSON API.
type GoogleCSE struct {
	APIKey string
	CX     string
	// BaseURL overrides the API endpoint, for tests.
	BaseURL string

	transport *transport
}

func (g *GoogleCSE) Name() string { return "google_cse" }

func (g *GoogleCSE) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	num := topK
	if num > 10 {
		num = 10
	}
	params := url.Values{}
	params.Set("key", g.APIKey)
	params.Set("cx", g.CX)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", num))
	// dateRestrict: dN = within N days.
	if opts.RecencyDays > 0 {
		params.Set("dateRestrict", fmt.Sprintf("d%d", opts.RecencyDays))
	}
	if opts.Geo != "" {
		params.Set("gl", strings.ToLower(opts.Geo))
	}
	if opts.Language != "" {
		params.Set("lr", opts.Language)
	}
	if opts.Site != "" {
		params.Set("siteSearch", opts.Site)
	}

	base := g.BaseURL
	if base == "" {
		base = googleCSEEndpoint
	}
	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := g.transport.getJSON(ctx, g.Name(), base, params, &payload); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(payload.Items))
	for _, it := range payload.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     link,
			Snippet: strings.TrimSpace(it.Snippet),
			Origin:  OriginWeb,
		})
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}
