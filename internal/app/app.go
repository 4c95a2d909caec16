package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/harutofu/shiori/internal/enrich"
	"github.com/harutofu/shiori/internal/gemini"
	"github.com/harutofu/shiori/internal/markdown"
	"github.com/harutofu/shiori/internal/queue"
	"github.com/harutofu/shiori/internal/research"
	"github.com/harutofu/shiori/internal/route"
	"github.com/harutofu/shiori/internal/search"
	"github.com/harutofu/shiori/internal/store"
	"github.com/harutofu/shiori/internal/tasks"
	"github.com/harutofu/shiori/internal/trust"
)

// App is the assembled service.
type App struct {
	Config   Config
	Store    *store.Store
	Router   *route.Router
	Gen      *gemini.Client
	Markdown *markdown.Renderer
	Research *research.Engine
	Runner   *tasks.Runner
	Dispatch *queue.Dispatcher

	redisQueue *queue.Redis
}

// New wires the service from cfg. Redis being unreachable is not fatal: the
// dispatcher degrades to inline summarization.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gemini-2.5-flash"
	}
	if cfg.FallbackModel == "" {
		cfg.FallbackModel = "gemini-2.5-flash-lite"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	webSearch, err := search.New(search.Config{
		Provider:     cfg.SearchProvider,
		GoogleAPIKey: cfg.GoogleAPIKey,
		GoogleCSEID:  cfg.GoogleCSEID,
		SerpAPIKey:   cfg.SerpAPIKey,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	bookDomains := cfg.TrustedBookDomains
	if len(bookDomains) == 0 {
		bookDomains = trust.DefaultBookDomains
	}
	if cfg.DisableTrustedDomains {
		bookDomains = nil
	}

	books := &search.BookSearcher{
		Web:            webSearch,
		TrustedDomains: bookDomains,
	}
	if cfg.GoogleAPIKey != "" {
		if catalog, err := search.New(search.Config{Provider: "google_books", GoogleAPIKey: cfg.GoogleAPIKey}); err == nil {
			books.Books = catalog
		}
	}
	if catalog, err := search.New(search.Config{Provider: "ndl"}); err == nil {
		books.Library = catalog
	}

	gen := &gemini.Client{
		Backend:  newBackend(cfg),
		Primary:  cfg.DefaultModel,
		Fallback: cfg.FallbackModel,
	}

	enricher := enrich.New(bookDomains)
	router := &route.Router{
		Search:         webSearch,
		Books:          books,
		Enrich:         enricher,
		Gen:            gen,
		BookDomains:    bookDomains,
		WeatherDomains: trust.DefaultWeatherDomains,
		NewsDomains:    trust.DefaultNewsDomains,
	}

	runner := &tasks.Runner{Store: st, Gen: gen}
	dispatch := &queue.Dispatcher{Sync: runner.Handle}

	a := &App{
		Config:   cfg,
		Store:    st,
		Router:   router,
		Gen:      gen,
		Markdown: markdown.New(),
		Research: &research.Engine{Search: webSearch, Enrich: enricher, Gen: gen},
		Runner:   runner,
		Dispatch: dispatch,
	}

	if cfg.RedisURL != "" {
		rq, err := queue.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable; summaries will run inline")
		} else {
			a.redisQueue = rq
			dispatch.Queue = rq
		}
	}
	return a, nil
}

func newBackend(cfg Config) gemini.Backend {
	switch strings.ToLower(cfg.GenerationBackend) {
	case "openai":
		return gemini.NewOpenAI(cfg.LLMAPIKey, cfg.LLMBaseURL)
	case "mock":
		return &gemini.Mock{Default: "モック応答です。実際の生成バックエンドは設定されていません。"}
	default:
		return &gemini.REST{APIKey: cfg.GeminiAPIKey}
	}
}

// Close releases held resources.
func (a *App) Close() error {
	var firstErr error
	if a.redisQueue != nil {
		if err := a.redisQueue.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return fmt.Errorf("close app: %w", firstErr)
	}
	return nil
}
