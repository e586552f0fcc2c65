package chat

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const openaiBaseURL = "https://api.openai.com/v1"

// OpenAIOpts configures the OpenAI-compatible client. BaseURL can point at a
// proxy or a test server.
type OpenAIOpts struct {
	BaseURL string
	APIKey  string
}

// OpenAIClient calls an OpenAI-compatible chat-completions endpoint.
type OpenAIClient struct {
	httpClient *resty.Client
}

// NewOpenAIClient creates a client for the chat-completions API.
func NewOpenAIClient(opts OpenAIOpts) *OpenAIClient {
	baseURL := openaiBaseURL
	if opts.BaseURL != "" {
		baseURL = opts.BaseURL
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(opts.APIKey)
	return &OpenAIClient{httpClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	MaxTokens      int            `json:"max_tokens"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Complete implements the Completer interface against the chat-completions
// endpoint. Image URLs become image_url content parts on the user message.
func (c *OpenAIClient) Complete(ctx context.Context, p Prompt, opts Options) (*Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var userContent any = p.User
	if len(p.ImageURLs) > 0 {
		parts := []contentPart{{Type: "text", Text: p.User}}
		for _, u := range p.ImageURLs {
			parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURLPart{URL: u}})
		}
		userContent = parts
	}

	body := chatRequest{
		Model: opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: userContent},
		},
		MaxTokens:      opts.MaxTokens,
		Temperature:    opts.Temperature,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	result := &chatResponse{}
	apiErr := &apiErrorResponse{}
	res, err := c.httpClient.NewRequest().
		SetContext(ctx).
		SetBody(body).
		SetResult(result).
		SetError(apiErr).
		Post("/chat/completions")
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		message := apiErr.Error.Message
		if message == "" {
			message = res.Status()
		}
		return nil, &UpstreamError{
			StatusCode: res.StatusCode(),
			Code:       apiErr.Error.Code,
			Message:    message,
		}
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}

	model := result.Model
	if model == "" {
		model = opts.Model
	}
	usage := Usage{
		InputTokens:  result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
	}
	usage.CostUSD = calculateCost(model, usage.InputTokens, usage.OutputTokens)

	log.Info().
		Str("model", model).
		Int("imageCount", len(p.ImageURLs)).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("chat completion call")

	return &Result{
		Content: result.Choices[0].Message.Content,
		Model:   model,
		Usage:   usage,
	}, nil
}
