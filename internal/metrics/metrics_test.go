package metrics

import (
	"testing"
	"time"

	"github.com/lemore/letgo-buddy/internal/buddy"
	"github.com/lemore/letgo-buddy/internal/chat"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRun(buddy.RunInfo{
		Task:     buddy.TaskAnalyzeItem,
		Model:    "gpt-4o",
		Duration: 1200 * time.Millisecond,
		Usage:    chat.Usage{InputTokens: 100, OutputTokens: 50, CostUSD: 0.001},
	})
	c.RecordRun(buddy.RunInfo{
		Task:     buddy.TaskAnalyzeItem,
		Code:     "timeout_error",
		Duration: 30 * time.Second,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues(buddy.TaskAnalyzeItem, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues(buddy.TaskAnalyzeItem, "timeout_error")))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.tokens.WithLabelValues(buddy.TaskAnalyzeItem, "input")))
	assert.Equal(t, 50.0, testutil.ToFloat64(c.tokens.WithLabelValues(buddy.TaskAnalyzeItem, "output")))
	assert.InDelta(t, 0.001, testutil.ToFloat64(c.costUSD.WithLabelValues(buddy.TaskAnalyzeItem)), 1e-9)
}

func TestCollectorRegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	families, err := reg.Gather()
	require.NoError(t, err)
	// Histograms and counters without observations are not gathered yet.
	assert.NotNil(t, families)
}
