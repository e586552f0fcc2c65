package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// GeminiClient implements Completer using Google's Gemini API.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed completer.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Complete implements the Completer interface. Image URLs are forwarded as
// file references; the backend must be able to reach them.
func (g *GeminiClient) Complete(ctx context.Context, p Prompt, opts Options) (*Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(p.User)}
	for _, u := range p.ImageURLs {
		parts = append(parts, &genai.Part{
			FileData: &genai.FileData{FileURI: u, MIMEType: "image/jpeg"},
		})
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens:   int32(opts.MaxTokens),
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, opts.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateCost(opts.Model, usage.InputTokens, usage.OutputTokens)
	}

	log.Info().
		Str("model", opts.Model).
		Int("imageCount", len(p.ImageURLs)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("chat completion call")

	return &Result{Content: text, Model: opts.Model, Usage: usage}, nil
}
