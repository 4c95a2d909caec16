package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harutofu/shiori/internal/app"
	"github.com/harutofu/shiori/internal/httpapi"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		cfg        app.Config
		configPath string
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&cfg.ListenAddr, "listen", "", "HTTP listen address (default :8080)")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database path (default shiori.db)")
	flag.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the background queue (optional)")
	flag.StringVar(&cfg.DefaultModel, "model", "", "Default generation model")
	flag.StringVar(&cfg.FallbackModel, "fallback-model", "", "Fallback generation model")
	flag.StringVar(&cfg.SearchProvider, "search", "", "Web search provider: google_cse or serpapi")
	flag.BoolVar(&cfg.DisableTrustedDomains, "no-trusted-domains", false, "Disable trusted-domain biasing in book search")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.Parse()

	if configPath != "" {
		if err := app.LoadConfigFile(configPath, &cfg); err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config file")
		}
	}
	app.ApplyEnvToConfig(&cfg)
	if cfg.DBPath == "" {
		cfg.DBPath = "shiori.db"
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to assemble service")
	}
	defer a.Close()

	api := &httpapi.Server{
		Store:    a.Store,
		Router:   a.Router,
		Research: a.Research,
		Markdown: a.Markdown,
		Dispatch: a.Dispatch,
	}
	srv := &http.Server{
		Addr:              a.Config.ListenAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown incomplete")
		}
	}()

	log.Info().Str("addr", a.Config.ListenAddr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("bye")
}
