// Package metrics exposes Prometheus metrics for the AI request pipeline.
package metrics

import (
	"net/http"

	"github.com/lemore/letgo-buddy/internal/buddy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records pipeline outcomes, latency and upstream token spend.
type Collector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	tokens   *prometheus.CounterVec
	costUSD  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "letgo_buddy_requests_total",
			Help: "Pipeline requests by task and outcome code (ok or error code).",
		}, []string{"task", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "letgo_buddy_request_duration_seconds",
			Help:    "Pipeline request duration from entry to envelope construction.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "letgo_buddy_tokens_total",
			Help: "Upstream model tokens consumed, by task and direction.",
		}, []string{"task", "direction"}),
		costUSD: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "letgo_buddy_cost_usd_total",
			Help: "Estimated upstream model spend in USD, by task.",
		}, []string{"task"}),
	}

	reg.MustRegister(c.requests, c.duration, c.tokens, c.costUSD)
	return c
}

// RecordRun records one finished pipeline run.
func (c *Collector) RecordRun(info buddy.RunInfo) {
	code := info.Code
	if code == "" {
		code = "ok"
	}
	c.requests.WithLabelValues(info.Task, code).Inc()
	c.duration.WithLabelValues(info.Task).Observe(info.Duration.Seconds())
	if info.Usage.InputTokens > 0 {
		c.tokens.WithLabelValues(info.Task, "input").Add(float64(info.Usage.InputTokens))
	}
	if info.Usage.OutputTokens > 0 {
		c.tokens.WithLabelValues(info.Task, "output").Add(float64(info.Usage.OutputTokens))
	}
	if info.Usage.CostUSD > 0 {
		c.costUSD.WithLabelValues(info.Task).Add(info.Usage.CostUSD)
	}
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
