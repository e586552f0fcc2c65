package buddy

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/lemore/letgo-buddy/internal/chat"
	"github.com/lemore/letgo-buddy/internal/envelope"
	"github.com/rs/zerolog/log"
)

// Task is one pipeline instance. The four assistant tasks differ only in
// this configuration; the control flow in Run is shared.
type Task[Req any, Res any] struct {
	Name    string
	Options chat.Options

	// Decode unmarshals the raw payload, applies defaults and returns every
	// violated constraint.
	Decode func(raw []byte) (Req, []envelope.FieldError)

	// Prompt deterministically builds the model input from a valid request.
	Prompt func(req Req) chat.Prompt

	// Output strictly parses and validates the model's text output.
	Output func(req Req, content string) (Res, *envelope.Error)
}

// RunInfo summarizes a finished pipeline run for metrics and the usage log.
// Code is empty on success.
type RunInfo struct {
	Task      string
	RequestID string
	Model     string
	Code      string
	Duration  time.Duration
	Usage     chat.Usage
}

// Run executes one request through the linear pipeline:
// validate -> prompt -> invoke -> parse -> validate output -> envelope.
// A failure at any step short-circuits. The request id is generated before
// validation and the duration covers entry to envelope construction.
func Run[Req any, Res any](ctx context.Context, completer chat.Completer, t Task[Req, Res], raw []byte) (envelope.Envelope, RunInfo) {
	start := time.Now()
	requestID := uuid.NewString()
	info := RunInfo{Task: t.Name, RequestID: requestID}

	fail := func(err *envelope.Error) (envelope.Envelope, RunInfo) {
		info.Code = err.Code
		info.Duration = time.Since(start)
		log.Warn().
			Str("task", t.Name).
			Str("requestId", requestID).
			Str("code", err.Code).
			Str("reason", err.Message).
			Msg("pipeline request failed")
		return envelope.Failure(requestID, start, err), info
	}

	req, fieldErrs := t.Decode(raw)
	if len(fieldErrs) > 0 {
		return fail(envelope.Validation(fieldErrs))
	}

	result, err := completer.Complete(ctx, t.Prompt(req), t.Options)
	if err != nil {
		return fail(classifyCompletionError(err))
	}
	info.Model = result.Model
	info.Usage = result.Usage

	out, verr := t.Output(req, result.Content)
	if verr != nil {
		return fail(verr)
	}

	info.Duration = time.Since(start)
	log.Info().
		Str("task", t.Name).
		Str("requestId", requestID).
		Str("model", result.Model).
		Int64("durationMs", info.Duration.Milliseconds()).
		Msg("pipeline request succeeded")
	return envelope.Success(requestID, start, result.Model, out), info
}

// classifyCompletionError maps invoker failures onto the caller-facing error
// taxonomy.
func classifyCompletionError(err error) *envelope.Error {
	var upstream *chat.UpstreamError
	switch {
	case errors.As(err, &upstream):
		if upstream.ImageAccess() {
			return envelope.ImageAccess("AI could not access the provided image URLs: " + upstream.Message)
		}
		return envelope.Internal(upstream.Message)
	case errors.Is(err, chat.ErrEmptyResponse):
		return envelope.Internal("No response from AI")
	case errors.Is(err, context.DeadlineExceeded):
		return envelope.Timeout("AI request timed out")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return envelope.Timeout("AI request timed out")
	}
	return envelope.Internal(err.Error())
}
