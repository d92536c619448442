package provider

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel = "gpt-4o"
	defaultOllamaModel = "llama3.1"

	defaultOllamaBaseURL = "http://localhost:11434/v1"
)

// OpenAIClient is the slice of the go-openai client the provider needs,
// kept as an interface for testability.
type OpenAIClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider implements Provider on top of the OpenAI chat API, or
// any endpoint that speaks it.
type OpenAIProvider struct {
	client       OpenAIClient
	name         string
	defaultModel string
}

// NewOpenAIProvider creates a provider with a stock client. An empty
// baseURL uses the public API endpoint.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(cfg),
		name:         "openai",
		defaultModel: defaultOpenAIModel,
	}
}

// NewOllamaProvider creates a provider against a local Ollama server via
// its OpenAI-compatible endpoint. An empty baseURL uses the default
// localhost address.
func NewOllamaProvider(baseURL string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	cfg := openai.DefaultConfig("")
	cfg.BaseURL = baseURL
	return &OpenAIProvider{
		client:       openai.NewClientWithConfig(cfg),
		name:         "ollama",
		defaultModel: defaultOllamaModel,
	}
}

// NewOpenAIProviderWithClient creates a provider with a custom client
// (useful for testing).
func NewOpenAIProviderWithClient(client OpenAIClient) *OpenAIProvider {
	return &OpenAIProvider{client: client, name: "openai", defaultModel: defaultOpenAIModel}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// CreateCompletion creates a completion
func (p *OpenAIProvider) CreateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, p.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewProviderError(p.name, ErrorCodeUnknown, "no choices in response", nil)
	}

	choice := resp.Choices[0]
	return &CompletionResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func (p *OpenAIProvider) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ErrorCodeUnknown
		switch apiErr.HTTPStatusCode {
		case 401:
			code = ErrorCodeAuthentication
		case 429:
			code = ErrorCodeRateLimit
		case 400:
			code = ErrorCodeInvalidRequest
		case 404:
			code = ErrorCodeModelNotFound
		default:
			if apiErr.HTTPStatusCode >= 500 {
				code = ErrorCodeServerError
			}
		}
		perr := NewProviderError(p.name, code, apiErr.Message, err)
		perr.StatusCode = apiErr.HTTPStatusCode
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewProviderError(p.name, ErrorCodeTimeout, err.Error(), err)
	}
	return NewProviderError(p.name, ErrorCodeUnknown, err.Error(), err)
}
