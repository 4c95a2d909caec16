package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/harutofu/shiori/internal/app"
	"github.com/harutofu/shiori/internal/queue"
)

// shiori-worker drains the summarize queue. It shares the server's
// configuration so both processes see the same database and models.
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		cfg        app.Config
		configPath string
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
	flag.StringVar(&cfg.DBPath, "db", "", "SQLite database path (default shiori.db)")
	flag.StringVar(&cfg.RedisURL, "redis", "", "Redis URL of the job queue")
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
	if cfg.RedisURL == "" {
		log.Fatal().Msg("a redis url is required; the worker has no inline mode")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to assemble worker")
	}
	defer a.Close()

	rq, err := queue.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rq.Close()

	log.Info().Msg("worker started")
	if err := rq.Run(ctx, a.Runner.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker failed")
	}
	log.Info().Msg("bye")
}
