package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const serpAPIEndpoint = "https://serpapi.com/search.json"

// SerpAPI implements Provider against SerpAPI's Google engine.
type SerpAPI struct {
	APIKey  string
	BaseURL string

	transport *transport
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	num := topK
	if num > 10 {
		num = 10
	}
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", num))
	params.Set("api_key", s.APIKey)
	// SerpAPI exposes Google's qdr buckets rather than a day count.
	if opts.RecencyDays > 0 {
		switch {
		case opts.RecencyDays <= 1:
			params.Set("tbs", "qdr:d")
		case opts.RecencyDays <= 7:
			params.Set("tbs", "qdr:w")
		default:
			params.Set("tbs", "qdr:m")
		}
	}
	if opts.Geo != "" {
		params.Set("gl", strings.ToLower(opts.Geo))
	}
	if opts.Language != "" {
		// SerpAPI expects hl=ja rather than lr=lang_ja.
		params.Set("hl", strings.TrimPrefix(opts.Language, "lang_"))
	}
	if opts.Site != "" {
		params.Set("q", query+" site:"+opts.Site)
	}

	base := s.BaseURL
	if base == "" {
		base = serpAPIEndpoint
	}
	var payload struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := s.transport.getJSON(ctx, s.Name(), base, params, &payload); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(payload.OrganicResults))
	for _, o := range payload.OrganicResults {
		title := strings.TrimSpace(o.Title)
		link := strings.TrimSpace(o.Link)
		if title == "" || link == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     link,
			Snippet: strings.TrimSpace(o.Snippet),
			Origin:  OriginWeb,
		})
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}
