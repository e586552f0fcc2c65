// Package server exposes the Let Go Buddy pipeline over HTTP. Every endpoint
// answers with the uniform envelope shape: 200 on success, 500 on any
// pipeline failure.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lemore/letgo-buddy/internal/buddy"
	"github.com/lemore/letgo-buddy/internal/chat"
	"github.com/lemore/letgo-buddy/internal/metrics"
	"github.com/lemore/letgo-buddy/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Deps collects everything the router needs. Usage and metrics are optional.
type Deps struct {
	Completer     chat.Completer
	Models        buddy.Models
	Metrics       *metrics.Collector
	Gatherer      prometheus.Gatherer
	Usage         storage.UsageStore
	RatePerMinute int
}

type server struct {
	completer chat.Completer
	metrics   *metrics.Collector
	usage     storage.UsageStore
}

// New builds the HTTP handler with all routes and middleware wired.
func New(deps Deps) http.Handler {
	s := &server{
		completer: deps.Completer,
		metrics:   deps.Metrics,
		usage:     deps.Usage,
	}

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(recoverer)
	if deps.RatePerMinute > 0 {
		r.Use(newRateLimiter(deps.RatePerMinute).middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/api/let-go-buddy", func(r chi.Router) {
		r.Post("/analyze-item", taskHandler(s, buddy.AnalyzeItemTask(deps.Models)))
		r.Post("/listing-generate", taskHandler(s, buddy.ListingGenerateTask(deps.Models)))
		r.Post("/price-suggest", taskHandler(s, buddy.PriceSuggestTask(deps.Models)))
		r.Post("/moving-plan", taskHandler(s, buddy.MovingPlanTask(deps.Models)))
	})

	return r
}

// taskHandler adapts one pipeline task into an HTTP handler. All four
// endpoints share this exact flow.
func taskHandler[Req any, Res any](s *server, t buddy.Task[Req, Res]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			raw = nil
		}

		// A caller disconnect must not abort the upstream call; the invoker's
		// own timeout is the only bound.
		ctx := context.WithoutCancel(r.Context())

		env, info := buddy.Run(ctx, s.completer, t, raw)
		s.record(info)

		status := http.StatusOK
		if env.Error != nil {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, env)
	}
}

func (s *server) record(info buddy.RunInfo) {
	if s.metrics != nil {
		s.metrics.RecordRun(info)
	}
	if s.usage == nil {
		return
	}
	err := s.usage.Record(storage.UsageRecord{
		RequestID:    info.RequestID,
		Task:         info.Task,
		Model:        info.Model,
		Code:         info.Code,
		DurationMS:   info.Duration.Milliseconds(),
		InputTokens:  info.Usage.InputTokens,
		OutputTokens: info.Usage.OutputTokens,
		CostUSD:      info.Usage.CostUSD,
	})
	if err != nil {
		log.Warn().Err(err).Str("requestId", info.RequestID).Msg("failed to record usage")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
