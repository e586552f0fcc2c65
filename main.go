package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lemore/letgo-buddy/config"
	"github.com/lemore/letgo-buddy/internal/chat"
	"github.com/lemore/letgo-buddy/internal/metrics"
	"github.com/lemore/letgo-buddy/internal/server"
	"github.com/lemore/letgo-buddy/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var completer chat.Completer
	switch cfg.Provider {
	case config.ProviderGemini:
		gemini, err := chat.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Gemini client")
		}
		completer = gemini
	default:
		completer = chat.NewOpenAIClient(chat.OpenAIOpts{
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
		})
	}
	log.Info().Str("provider", cfg.Provider).Str("analyzeModel", cfg.Models.Analyze).Msg("completion client initialized")

	var usage storage.UsageStore
	if cfg.DBPath != "" {
		store, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize usage store")
		}
		defer store.Close()
		usage = store
		log.Info().Str("dbPath", cfg.DBPath).Msg("usage store initialized")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	handler := server.New(server.Deps{
		Completer:     completer,
		Models:        cfg.Models,
		Metrics:       collector,
		Gatherer:      registry,
		Usage:         usage,
		RatePerMinute: cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		os.Exit(1)
	}
	log.Info().Msg("shutdown complete")
}
