package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/persona-agent/internal/config"
)

// OpenAIProvider talks to any OpenAI-compatible chat-completion endpoint
// (DeepSeek by default) with bearer-token authorization.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a provider from the llm config section
func NewOpenAIProvider(cfg config.LLMConfig) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}
}

// Name returns "openai"
func (p *OpenAIProvider) Name() string {
	return config.ProviderOpenAI
}

// Chat sends a non-streaming two-message exchange
func (p *OpenAIProvider) Chat(ctx context.Context, req Request) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Persona},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage()},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Stream:      false,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindMalformed, Provider: p.Name(), Detail: "no choices in response"}
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", &Error{Kind: KindEmpty, Provider: p.Name(), Detail: "first choice has no content"}
	}
	return content, nil
}

// classify maps go-openai errors onto failure kinds
func (p *OpenAIProvider) classify(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, Provider: p.Name(), StatusCode: apiErr.HTTPStatusCode, Detail: apiErr.Message, Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindStatus, Provider: p.Name(), StatusCode: reqErr.HTTPStatusCode, Detail: reqErr.Error(), Err: err}
	}

	if isTransport(err) {
		return &Error{Kind: KindTransport, Provider: p.Name(), Detail: err.Error(), Err: err}
	}

	// A 2xx answer whose body did not decode
	return &Error{Kind: KindMalformed, Provider: p.Name(), Detail: err.Error(), Err: err}
}

func isTransport(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
