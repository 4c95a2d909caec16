package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const googleBooksEndpoint = "https://www.googleapis.com/books/v1/volumes"

// GoogleBooks implements Provider against the Google Books volumes API,
// returning bibliographic records as catalog results.
type GoogleBooks struct {
	APIKey  string
	BaseURL string
	// LanguageRestrict limits matches to one language code, e.g. "ja".
	LanguageRestrict string

	transport *transport
}

func (g *GoogleBooks) Name() string { return "google_books" }

func (g *GoogleBooks) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("key", g.APIKey)
	params.Set("maxResults", fmt.Sprintf("%d", topK))
	lang := g.LanguageRestrict
	if lang == "" {
		lang = "ja"
	}
	params.Set("langRestrict", lang)

	base := g.BaseURL
	if base == "" {
		base = googleBooksEndpoint
	}
	var payload struct {
		Items []struct {
			VolumeInfo struct {
				Title         string   `json:"title"`
				Authors       []string `json:"authors"`
				Publisher     string   `json:"publisher"`
				PublishedDate string   `json:"publishedDate"`
				Description   string   `json:"description"`
				InfoLink      string   `json:"infoLink"`
			} `json:"volumeInfo"`
		} `json:"items"`
	}
	if err := g.transport.getJSON(ctx, g.Name(), base, params, &payload); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(payload.Items))
	for _, it := range payload.Items {
		v := it.VolumeInfo
		title := strings.TrimSpace(v.Title)
		link := strings.TrimSpace(v.InfoLink)
		if title == "" || link == "" {
			continue
		}
		out = append(out, Result{
			Title:   title,
			URL:     link,
			Snippet: bookSnippet(v.Authors, v.Publisher, v.PublishedDate, v.Description),
			Origin:  OriginCatalog,
		})
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}

// bookSnippet folds bibliographic fields into one snippet line so downstream
// consumers see catalog records the same way as web snippets.
func bookSnippet(authors []string, publisher, published, description string) string {
	parts := make([]string, 0, 4)
	if len(authors) > 0 {
		parts = append(parts, strings.Join(authors, ", "))
	}
	if publisher != "" {
		parts = append(parts, publisher)
	}
	if published != "" {
		parts = append(parts, published)
	}
	if description != "" {
		parts = append(parts, description)
	}
	return strings.TrimSpace(strings.Join(parts, " / "))
}
