// Package enrich upgrades search snippets to full-page excerpts by fetching
// a small number of result URLs and extracting their readable text.
package enrich

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/harutofu/shiori/internal/extract"
	"github.com/harutofu/shiori/internal/fetch"
	"github.com/harutofu/shiori/internal/search"
	"github.com/harutofu/shiori/internal/trust"
)

// Fetcher is the slice of fetch.Client enrichment needs.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, string, error)
}

// Enricher fetches and extracts page content for top search results. Trusted
// domains are fetched first when a trust list is configured.
type Enricher struct {
	Fetch          Fetcher
	TrustedDomains []string
	// MaxChars caps extracted text per result, in runes. Zero means 2000.
	MaxChars int
	// Workers bounds concurrent fetches. Zero means 2.
	Workers int
}

// New builds an Enricher over a default fetch client.
func New(trustedDomains []string) *Enricher {
	return &Enricher{
		Fetch: &fetch.Client{
			UserAgent:     "shiori/1.0 (+https://github.com/harutofu/shiori)",
			MaxAttempts:   2,
			MaxConcurrent: 4,
		},
		TrustedDomains: trustedDomains,
	}
}

// Enrich fetches up to maxFetch result pages, trusted domains first, and
// fills in each result's Enriched text in place. The input order is
// preserved. Fetch failures are logged and leave the snippet untouched; the
// returned slice is always usable.
func (e *Enricher) Enrich(ctx context.Context, results []search.Result, maxFetch int) []search.Result {
	if maxFetch <= 0 {
		maxFetch = 2
	}
	maxChars := e.MaxChars
	if maxChars <= 0 {
		maxChars = 2000
	}
	workers := e.Workers
	if workers <= 0 {
		workers = 2
	}

	targets := e.pickTargets(results, maxFetch)
	if len(targets) == 0 {
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, idx := range targets {
		g.Go(func() error {
			r := &results[idx]
			body, _, err := e.Fetch.Get(gctx, r.URL)
			if err != nil {
				log.Warn().Err(err).Str("url", r.URL).Msg("enrichment fetch failed")
				return nil
			}
			doc := extract.FromHTML(body)
			if doc.Text == "" {
				return nil
			}
			r.Enriched = extract.Truncate(doc.Text, maxChars)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// pickTargets chooses result indices to fetch: trusted-domain results in
// input order first, then the remainder, capped at maxFetch. Results that
// already carry enriched text are skipped.
func (e *Enricher) pickTargets(results []search.Result, maxFetch int) []int {
	trusted := make([]int, 0, len(results))
	rest := make([]int, 0, len(results))
	for i, r := range results {
		if r.URL == "" || r.Enriched != "" {
			continue
		}
		if len(e.TrustedDomains) > 0 && trust.IsTrusted(r.URL, e.TrustedDomains) {
			trusted = append(trusted, i)
		} else {
			rest = append(rest, i)
		}
	}
	picked := append(trusted, rest...)
	if len(picked) > maxFetch {
		picked = picked[:maxFetch]
	}
	return picked
}
