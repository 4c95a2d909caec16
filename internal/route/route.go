// Package route classifies incoming chat messages and drives the matching
// evidence pipeline: book summarization, time-sensitive search, or plain
// conversation.
package route

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/harutofu/shiori/internal/compose"
	"github.com/harutofu/shiori/internal/fresh"
	"github.com/harutofu/shiori/internal/search"
	"github.com/harutofu/shiori/internal/trust"
)

// Route names for logging and responses.
const (
	RouteBook  = "book"
	RouteFresh = "fresh"
	RouteChat  = "chat"
)

// NoSourcesReply is returned when a book request found no usable evidence.
// The generator is deliberately not consulted in that case.
const NoSourcesReply = "この本について信頼できる情報源が見つかりませんでした。書名や著者名を確認していただくか、参考になるページのURLを貼っていただければ、その内容をもとに要約します。"

// Searcher runs web queries. *search.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
}

// BookFinder runs the layered book search. *search.BookSearcher satisfies it.
type BookFinder interface {
	SearchBookV2(ctx context.Context, title, author string, topK int) ([]search.Result, error)
}

// Enricher upgrades snippets to page excerpts. *enrich.Enricher satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, results []search.Result, maxFetch int) []search.Result
}

// Generator produces text. *gemini.Client satisfies it.
type Generator interface {
	Chat(ctx context.Context, requested string, history []compose.Turn, message string) (string, string, error)
	Answer(ctx context.Context, requested, prompt string) (string, string, error)
}

// Request is one user message with its conversation context.
type Request struct {
	Message string
	History []compose.Turn
	// Model optionally overrides the default model for this turn.
	Model string
	// UserSources are URLs or excerpts the user supplied as evidence.
	UserSources []search.Result
}

// Response is the routed answer.
type Response struct {
	Reply     string
	ModelUsed string
	Route     string
	Sources   []search.Result
}

// SearchError wraps an evidence-gathering failure. It is surfaced to the
// caller instead of silently degrading to an unsourced chat answer.
type SearchError struct {
	Route string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s search failed: %v", e.Route, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Router wires the pipeline stages together.
type Router struct {
	Search Searcher
	Books  BookFinder
	Enrich Enricher
	Gen    Generator

	BookDomains    []string
	WeatherDomains []string
	NewsDomains    []string

	// Now supplies the reference time. Nil means time.Now.
	Now func() time.Time
	// HistoryLimit caps turns passed to plain chat. Zero means 50.
	HistoryLimit int
}

var weatherWords = []string{"天気", "天候", "予報", "weather", "forecast"}
var newsWords = []string{"ニュース", "速報", "news", "headline", "breaking"}

// Route classifies the message and runs the matching pipeline.
func (r *Router) Route(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required")
	}
	if book, ok := ParseBookRequest(req.Message); ok {
		return r.routeBook(ctx, req, book)
	}
	freshCtx := fresh.Classify(req.Message, r.now())
	if freshCtx.Class == fresh.ClassTimeSensitive || freshCtx.Class == fresh.ClassDated {
		return r.routeFresh(ctx, req, freshCtx)
	}
	return r.routeChat(ctx, req)
}

func (r *Router) routeBook(ctx context.Context, req Request, book BookRequest) (*Response, error) {
	title := book.Title
	if title == "" {
		title = req.Message
	}
	results, err := r.Books.SearchBookV2(ctx, title, book.Author, 10)
	if err != nil {
		return nil, &SearchError{Route: RouteBook, Err: err}
	}

	evidence := search.MergeUnique(userSources(req), results)
	if len(evidence) == 0 {
		log.Info().Str("title", title).Msg("book search produced no evidence")
		return &Response{Reply: NoSourcesReply, Route: RouteBook}, nil
	}
	if r.Enrich != nil {
		evidence = r.Enrich.Enrich(ctx, evidence, 2)
	}

	prompt := compose.BookSummary(title, book.Author, book.TOC, evidence, r.BookDomains)
	reply, model, err := r.Gen.Answer(ctx, req.Model, prompt)
	if err != nil {
		return nil, err
	}
	return &Response{Reply: reply, ModelUsed: model, Route: RouteBook, Sources: evidence}, nil
}

func (r *Router) routeFresh(ctx context.Context, req Request, freshCtx fresh.Context) (*Response, error) {
	domains := r.NewsDomains
	if containsAny(strings.ToLower(req.Message), weatherWords) {
		domains = r.WeatherDomains
	}

	bias := trust.SiteBias(domains)
	opts := search.Options{TopK: 5, RecencyDays: freshCtx.RecencyDays}
	if isJapanese(req.Message) {
		opts.Geo = "jp"
		opts.Language = "lang_ja"
	}

	// The first query names the date to steer providers toward same-day pages.
	first, err := r.Search.Search(ctx, withBias(req.Message+" "+fresh.DateJP(freshCtx.ReferenceDate), bias), opts)
	if err != nil {
		return nil, &SearchError{Route: RouteFresh, Err: err}
	}
	results := fresh.FilterToday(first, freshCtx)
	if len(results) == 0 && opts.RecencyDays == 1 {
		// Nothing confirmably from today: widen to two days once.
		opts.RecencyDays = 2
		relaxed, err := r.Search.Search(ctx, withBias(req.Message, bias), opts)
		if err != nil {
			return nil, &SearchError{Route: RouteFresh, Err: err}
		}
		if results = fresh.FilterToday(relaxed, freshCtx); len(results) == 0 {
			results = relaxed
		}
		if len(results) == 0 {
			results = first
		}
	} else if len(results) == 0 {
		results = first
	}
	if r.Enrich != nil {
		results = r.Enrich.Enrich(ctx, results, 2)
	}

	prompt := compose.CitationSummary(req.Message, fresh.Guard(freshCtx.ReferenceDate), results)
	reply, model, err := r.Gen.Answer(ctx, req.Model, prompt)
	if err != nil {
		return nil, err
	}
	return &Response{Reply: reply, ModelUsed: model, Route: RouteFresh, Sources: results}, nil
}

func (r *Router) routeChat(ctx context.Context, req Request) (*Response, error) {
	history := req.History
	limit := r.HistoryLimit
	if limit <= 0 {
		limit = 50
	}
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	reply, model, err := r.Gen.Chat(ctx, req.Model, history, req.Message)
	if err != nil {
		return nil, err
	}
	return &Response{Reply: reply, ModelUsed: model, Route: RouteChat}, nil
}

// userSources normalizes the request's own sources: they are marked as
// user-origin and a missing title falls back to the URL so the merge does
// not drop them.
func userSources(req Request) []search.Result {
	out := make([]search.Result, 0, len(req.UserSources))
	for _, s := range req.UserSources {
		s.Origin = search.OriginUser
		if s.Title == "" {
			s.Title = s.URL
		}
		out = append(out, s)
	}
	return out
}

func withBias(query, bias string) string {
	if bias == "" {
		return query
	}
	return query + " " + bias
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func isJapanese(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
