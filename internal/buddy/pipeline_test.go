package buddy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lemore/letgo-buddy/internal/chat"
	"github.com/lemore/letgo-buddy/internal/envelope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompleter struct {
	content    string
	err        error
	calls      int
	lastPrompt chat.Prompt
	lastOpts   chat.Options
}

func (s *stubCompleter) Complete(_ context.Context, p chat.Prompt, opts chat.Options) (*chat.Result, error) {
	s.calls++
	s.lastPrompt = p
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return &chat.Result{
		Content: s.content,
		Model:   "stub-model",
		Usage:   chat.Usage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150},
	}, nil
}

var testModels = Models{Analyze: "m-a", Listing: "m-l", Price: "m-p", Plan: "m-m"}

func TestRunSuccess(t *testing.T) {
	completer := &stubCompleter{
		content: `{"category":"furniture","condition":"good","usage_score":42,"sentiment":"neutral","recommendation":"sell","rationale":"Sturdy but worn."}`,
	}
	env, info := Run(context.Background(), completer, AnalyzeItemTask(testModels),
		[]byte(`{"photos":["https://x/a.jpg"],"title":"Wooden Chair","locale":"en"}`))

	require.Nil(t, env.Error)
	require.NotNil(t, env.Data)
	res := env.Data.(*AnalysisResult)
	assert.Equal(t, "sell", res.Recommendation)

	assert.Equal(t, "stub-model", env.Meta.Model)
	assert.Equal(t, envelope.Version, env.Meta.Version)
	_, err := uuid.Parse(env.Meta.RequestID)
	assert.NoError(t, err)

	assert.Equal(t, TaskAnalyzeItem, info.Task)
	assert.Equal(t, "", info.Code)
	assert.Equal(t, int64(100), info.Usage.InputTokens)
}

func TestRunValidationFailureSkipsUpstreamCall(t *testing.T) {
	completer := &stubCompleter{content: `{}`}
	env, info := Run(context.Background(), completer, AnalyzeItemTask(testModels), []byte(`{"photos":[]}`))

	require.NotNil(t, env.Error)
	assert.Nil(t, env.Data)
	assert.Equal(t, envelope.CodeValidation, env.Error.Code)
	assert.Equal(t, envelope.CodeValidation, info.Code)
	assert.Equal(t, 0, completer.calls, "no upstream call may happen on validation failure")
	assert.NotEmpty(t, env.Meta.RequestID)
}

func TestRunEmptyResponse(t *testing.T) {
	completer := &stubCompleter{err: chat.ErrEmptyResponse}
	env, _ := Run(context.Background(), completer, PriceSuggestTask(testModels),
		[]byte(`{"title":"Lamp","category":"home","condition":"good","region":"Seoul"}`))

	require.NotNil(t, env.Error)
	assert.Equal(t, envelope.CodeInternal, env.Error.Code)
	assert.Equal(t, "No response from AI", env.Error.Message)
}

func TestRunTimeout(t *testing.T) {
	completer := &stubCompleter{err: context.DeadlineExceeded}
	env, info := Run(context.Background(), completer, AnalyzeItemTask(testModels),
		[]byte(`{"photos":["https://x/a.jpg"]}`))

	require.NotNil(t, env.Error)
	assert.Equal(t, envelope.CodeTimeout, env.Error.Code)
	assert.Equal(t, envelope.CodeTimeout, info.Code)
}

func TestRunImageAccessError(t *testing.T) {
	completer := &stubCompleter{err: &chat.UpstreamError{
		StatusCode: 400,
		Code:       "invalid_image_url",
		Message:    "Error while downloading https://x/a.jpg",
	}}
	env, _ := Run(context.Background(), completer, AnalyzeItemTask(testModels),
		[]byte(`{"photos":["https://x/a.jpg"]}`))

	require.NotNil(t, env.Error)
	assert.Equal(t, envelope.CodeImageAccess, env.Error.Code)
}

func TestRunUnparsableOutputIsInternalError(t *testing.T) {
	completer := &stubCompleter{content: "sure, here is your analysis!"}
	env, _ := Run(context.Background(), completer, AnalyzeItemTask(testModels),
		[]byte(`{"photos":["https://x/a.jpg"]}`))

	require.NotNil(t, env.Error)
	assert.Nil(t, env.Data)
	assert.Equal(t, envelope.CodeInternal, env.Error.Code)
	assert.Equal(t, "Invalid JSON response from AI", env.Error.Message)
}

func TestRunListingFiltersToRequestedLocales(t *testing.T) {
	completer := &stubCompleter{
		content: `{"listings":{"en":{"title":"Lamp","body":"A lovely warm lamp in great shape.","hashtags":["lamp"]},"fi":{"title":"Lamppu","body":"Hyväkuntoinen lamppu.","hashtags":["lamppu"]}}}`,
	}
	env, _ := Run(context.Background(), completer, ListingGenerateTask(testModels),
		[]byte(`{"title":"Lamp","features":[],"condition":"Good","locales_to":["en"]}`))

	require.Nil(t, env.Error)
	res := env.Data.(*ListingResult)
	assert.Len(t, res.Listings, 1)
	assert.Contains(t, res.Listings, "en")
	assert.GreaterOrEqual(t, len(res.Listings["en"].Body), 10)
	assert.GreaterOrEqual(t, len(res.Listings["en"].Hashtags), 1)
	assert.LessOrEqual(t, len(res.Listings["en"].Hashtags), 10)
}

func TestRunPriceOrderingViolationNeverSucceeds(t *testing.T) {
	completer := &stubCompleter{
		content: `{"price_low":50,"price_mid":35,"price_high":20,"confidence":0.7,"factors":[]}`,
	}
	env, _ := Run(context.Background(), completer, PriceSuggestTask(testModels),
		[]byte(`{"title":"Lamp","category":"home","condition":"good","region":"Seoul"}`))

	require.NotNil(t, env.Error)
	assert.Nil(t, env.Data)
	assert.Equal(t, envelope.CodeInternal, env.Error.Code)
}

func TestTaskOptionsPerTask(t *testing.T) {
	analyze := AnalyzeItemTask(testModels)
	assert.Equal(t, "m-a", analyze.Options.Model)
	assert.Equal(t, 0.3, analyze.Options.Temperature)

	listing := ListingGenerateTask(testModels)
	assert.Equal(t, 0.7, listing.Options.Temperature)

	price := PriceSuggestTask(testModels)
	assert.Equal(t, "m-p", price.Options.Model)
	assert.Equal(t, 400, price.Options.MaxTokens)
}

func TestRunSameShapedEnvelopeOnRepeat(t *testing.T) {
	completer := &stubCompleter{
		content: `{"category":"furniture","condition":"good","usage_score":42,"sentiment":"neutral","recommendation":"sell","rationale":"r"}`,
	}
	raw := []byte(`{"photos":["https://x/a.jpg"]}`)

	first, _ := Run(context.Background(), completer, AnalyzeItemTask(testModels), raw)
	second, _ := Run(context.Background(), completer, AnalyzeItemTask(testModels), raw)

	// Request ids differ, but the envelope shape is identical.
	assert.NotEqual(t, first.Meta.RequestID, second.Meta.RequestID)
	assert.Equal(t, first.Data, second.Data)
	assert.Nil(t, first.Error)
	assert.Nil(t, second.Error)
}
