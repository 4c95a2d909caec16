package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Searcher is the slice of Client the book strategies need. *Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// qualityKeywords broadens a layer-2 query toward review and summary pages.
const qualityKeywords = "(書評 OR レビュー OR 要約 OR 内容紹介)"

// BookSearcher runs the layered book search strategies over a web provider
// and, for the V2 variant, structured catalog providers.
type BookSearcher struct {
	Web Searcher
	// Books and Library are catalog providers for SearchBookV2. Either may be
	// nil, in which case that layer is skipped.
	Books   Provider
	Library Provider

	// TrustedDomains are queried individually in layer 1, most trusted first.
	TrustedDomains []string

	// Layer1Threshold is the minimum result count after layer 1 before the
	// search broadens. Zero means 5. Layer2Threshold gates the author
	// fallback. Zero means 3.
	Layer1Threshold int
	Layer2Threshold int
}

// SearchBook runs up to three escalating layers: per-domain trusted searches
// in parallel, then an unrestricted quality-keyword query, then an
// author-only fallback. Each layer runs only when the prior under-delivered.
// Results are deduplicated by URL and capped to topK.
func (b *BookSearcher) SearchBook(ctx context.Context, title, author string, topK int) ([]Result, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &Error{Provider: "book", Msg: "book title is required"}
	}
	if topK <= 0 {
		topK = 10
	}
	layer1 := b.Layer1Threshold
	if layer1 <= 0 {
		layer1 = 5
	}
	layer2 := b.Layer2Threshold
	if layer2 <= 0 {
		layer2 = 3
	}

	base := title
	if author != "" {
		base += " " + author
	}

	// Layer 1: each trusted domain independently, in parallel. A failed
	// domain is logged and excluded; it never fails its siblings.
	domains := b.TrustedDomains
	if len(domains) > 3 {
		domains = domains[:3]
	}
	groups := make([][]Result, len(domains))
	var g errgroup.Group
	for i, domain := range domains {
		g.Go(func() error {
			results, err := b.Web.Search(ctx, base, Options{
				TopK:     3,
				Geo:      "jp",
				Language: "lang_ja",
				Site:     domain,
			})
			if err != nil {
				log.Warn().Err(err).Str("domain", domain).Msg("book search layer 1 domain failed")
				return nil
			}
			groups[i] = results
			return nil
		})
	}
	// The dedup merge may only run once every worker has finished.
	_ = g.Wait()
	merged := MergeUnique(groups...)
	log.Debug().Int("results", len(merged)).Str("title", title).Msg("book search layer 1 complete")
	if len(merged) >= layer1 {
		return capResults(merged, topK), nil
	}

	// Layer 2: no site restriction, quality keywords appended.
	broad, err := b.Web.Search(ctx, base+" "+qualityKeywords, Options{TopK: 10, Geo: "jp", Language: "lang_ja"})
	if err != nil {
		log.Warn().Err(err).Msg("book search layer 2 failed")
	} else {
		merged = MergeUnique(merged, broad)
	}
	if len(merged) >= layer2 {
		return capResults(merged, topK), nil
	}

	// Layer 3: author-only fallback, last resort.
	if author != "" {
		fallback, err := b.Web.Search(ctx, author+" 著書 書籍", Options{TopK: 10, Geo: "jp", Language: "lang_ja"})
		if err != nil {
			log.Warn().Err(err).Msg("book search layer 3 failed")
		} else {
			merged = MergeUnique(merged, fallback)
		}
	}
	return capResults(merged, topK), nil
}

// SearchBookV2 queries structured catalogs first (bibliographic metadata,
// then the national library), falling back to trusted-domain web search when
// both catalogs come back empty. Failures of one catalog never abort the other.
func (b *BookSearcher) SearchBookV2(ctx context.Context, title, author string, topK int) ([]Result, error) {
	if strings.TrimSpace(title) == "" {
		return nil, &Error{Provider: "book", Msg: "book title is required"}
	}
	if topK <= 0 {
		topK = 10
	}

	query := title
	if author != "" {
		query += " " + author
	}

	groups := make([][]Result, 0, 3)
	if b.Books != nil {
		records, err := b.Books.Search(ctx, query, Options{TopK: topK})
		if err != nil {
			log.Warn().Err(err).Msg("book catalog search failed")
		} else {
			groups = append(groups, records)
		}
	}
	if b.Library != nil {
		records, err := b.Library.Search(ctx, title, Options{TopK: topK})
		if err != nil {
			log.Warn().Err(err).Msg("library catalog search failed")
		} else {
			groups = append(groups, records)
		}
	}
	merged := MergeUnique(groups...)
	if len(merged) > 0 {
		return capResults(merged, topK), nil
	}

	// Catalog layers empty: fall back to the layered web strategy.
	return b.SearchBook(ctx, title, author, topK)
}

func capResults(results []Result, topK int) []Result {
	if len(results) > topK {
		return results[:topK]
	}
	return results
}
