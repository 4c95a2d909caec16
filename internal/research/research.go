// Package research runs multi-query deep research: a topic is decomposed
// into search sub-queries, evidence is gathered in parallel, and a markdown
// report is synthesized over the merged sources.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/harutofu/shiori/internal/compose"
	"github.com/harutofu/shiori/internal/search"
)

const (
	minSubQueries = 3
	maxSubQueries = 5
	maxWorkers    = 5
)

// Searcher runs one web query.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

// Enricher upgrades snippets to page excerpts.
type Enricher interface {
	Enrich(ctx context.Context, results []search.Result, maxFetch int) []search.Result
}

// Generator produces the decomposition and the final report.
type Generator interface {
	Answer(ctx context.Context, requested, prompt string) (string, string, error)
}

// Report is the outcome of one research run.
type Report struct {
	Topic      string
	SubQueries []string
	Markdown   string
	ModelUsed  string
	Sources    []search.Result
}

// Engine wires the research pipeline.
type Engine struct {
	Search Searcher
	Enrich Enricher
	Gen    Generator
	// PerQueryResults caps hits per sub-query. Zero means 5.
	PerQueryResults int
}

// Run researches topic and returns a markdown report with its sources.
func (e *Engine) Run(ctx context.Context, topic, model string) (*Report, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	subQueries := e.decompose(ctx, topic)
	sources, err := e.gather(ctx, subQueries)
	if err != nil {
		return nil, err
	}
	if e.Enrich != nil {
		sources = e.Enrich.Enrich(ctx, sources, 3)
	}

	markdown, modelUsed, err := e.Gen.Answer(ctx, model, compose.ReportPrompt(topic, sources))
	if err != nil {
		return nil, fmt.Errorf("synthesize report: %w", err)
	}
	return &Report{
		Topic:      topic,
		SubQueries: subQueries,
		Markdown:   markdown,
		ModelUsed:  modelUsed,
		Sources:    sources,
	}, nil
}

// decompose asks the generator for sub-queries. Output that is not a valid
// JSON array of at least minSubQueries strings falls back to a deterministic
// set derived from the topic, so research always proceeds.
func (e *Engine) decompose(ctx context.Context, topic string) []string {
	raw, _, err := e.Gen.Answer(ctx, "", compose.DecompositionPrompt(topic))
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("decomposition failed; using fallback queries")
		return fallbackQueries(topic)
	}
	queries, err := parseSubQueries(raw)
	if err != nil || len(queries) < minSubQueries {
		log.Warn().Err(err).Str("raw", raw).Msg("unusable decomposition; using fallback queries")
		return fallbackQueries(topic)
	}
	if len(queries) > maxSubQueries {
		queries = queries[:maxSubQueries]
	}
	return queries
}

// parseSubQueries parses a JSON string array, tolerating a markdown code
// fence around it.
func parseSubQueries(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}
	var queries []string
	if err := json.Unmarshal([]byte(raw), &queries); err != nil {
		return nil, fmt.Errorf("parse sub-queries: %w", err)
	}
	out := queries[:0]
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out, nil
}

func fallbackQueries(topic string) []string {
	return []string{
		topic,
		topic + " とは",
		topic + " 最新動向",
		topic + " 課題",
	}
}

// gather searches every sub-query in parallel and merges the results in
// sub-query order. One failed query is logged and skipped, but if every
// query fails the whole run fails rather than synthesizing from nothing.
func (e *Engine) gather(ctx context.Context, subQueries []string) ([]search.Result, error) {
	topK := e.PerQueryResults
	if topK <= 0 {
		topK = 5
	}
	groups := make([][]search.Result, len(subQueries))
	errs := make([]error, len(subQueries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i, q := range subQueries {
		g.Go(func() error {
			results, err := e.Search.Search(gctx, q, search.Options{TopK: topK})
			if err != nil {
				log.Warn().Err(err).Str("query", q).Msg("research sub-query failed")
				errs[i] = err
				return nil
			}
			groups[i] = results
			return nil
		})
	}
	// Merge only after every worker has finished writing its slot.
	_ = g.Wait()

	merged := search.MergeUnique(groups...)
	if len(merged) == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, fmt.Errorf("research search failed: %w", err)
			}
		}
	}
	return merged, nil
}
