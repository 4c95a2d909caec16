package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
)

const ndlEndpoint = "https://iss.ndl.go.jp/api/opensearch"

// NDL implements Provider against the National Diet Library OpenSearch API,
// which answers with an RSS document of bibliographic records.
type NDL struct {
	BaseURL string

	transport *transport
}

func (n *NDL) Name() string { return "ndl" }

func (n *NDL) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}
	params := url.Values{}
	params.Set("title", query)
	params.Set("mediatype", "1")
	params.Set("cnt", fmt.Sprintf("%d", topK))

	base := n.BaseURL
	if base == "" {
		base = ndlEndpoint
	}
	body, err := n.transport.get(ctx, n.Name(), base, params)
	if err != nil {
		return nil, err
	}

	var feed struct {
		Channel struct {
			Items []struct {
				Title    string `xml:"title"`
				Link     string `xml:"link"`
				Author   string `xml:"author"`
				Category string `xml:"category"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, &Error{Provider: n.Name(), Msg: "parse rss", Err: err}
	}
	out := make([]Result, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}
		snippet := strings.TrimSpace(it.Author)
		if it.Category != "" {
			if snippet != "" {
				snippet += " / "
			}
			snippet += strings.TrimSpace(it.Category)
		}
		out = append(out, Result{
			Title:   title,
			URL:     link,
			Snippet: snippet,
			Origin:  OriginCatalog,
		})
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}
