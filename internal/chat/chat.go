// Package chat wraps the hosted chat-completion APIs used by the Let Go Buddy
// pipeline. The pipeline only depends on the Completer interface; two
// implementations exist (OpenAI-compatible and Gemini).
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Prompt is the fully built input for a single completion call. Image URLs
// are passed by reference to the provider, never fetched locally.
type Prompt struct {
	System    string
	User      string
	ImageURLs []string
}

// Options bounds a single completion call.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Usage contains token usage and cost information for one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// Result is the raw outcome of a completion call. Content is the unparsed
// text of the first choice.
type Result struct {
	Content string
	Model   string
	Usage   Usage
}

// Completer executes a single chat completion with strict JSON output
// requested. A nil error guarantees non-empty Content.
type Completer interface {
	Complete(ctx context.Context, p Prompt, opts Options) (*Result, error)
}

// ErrEmptyResponse is returned when the provider answers with no choices or
// empty content.
var ErrEmptyResponse = errors.New("empty completion response")

// UpstreamError is a non-transport failure reported by the provider API.
type UpstreamError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error (status %d, code %q): %s", e.StatusCode, e.Code, e.Message)
}

// ImageAccess reports whether the upstream failure was caused by the provider
// being unable to retrieve one of the referenced image URLs.
func (e *UpstreamError) ImageAccess() bool {
	switch e.Code {
	case "invalid_image_url", "invalid_image_format", "image_parse_error":
		return true
	}
	m := strings.ToLower(e.Message)
	if !strings.Contains(m, "image") {
		return false
	}
	return strings.Contains(m, "download") || strings.Contains(m, "fetch") || strings.Contains(m, "access")
}

// Pricing per million tokens, used for the per-call cost log. Unknown models
// report zero cost.
var modelPricing = map[string]struct{ input, output float64 }{
	"gpt-4o":                {2.50, 10.00},
	"gpt-4o-mini":           {0.15, 0.60},
	"gemini-2.5-flash":      {0.30, 2.50},
	"gemini-2.5-flash-lite": {0.10, 0.40},
}

func calculateCost(model string, inputTokens, outputTokens int64) float64 {
	p, ok := modelPricing[model]
	if !ok {
		return 0
	}
	inputCost := float64(inputTokens) / 1_000_000 * p.input
	outputCost := float64(outputTokens) / 1_000_000 * p.output
	return inputCost + outputCost
}
