package ai

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/persona-agent/internal/config"
)

const jsonInstruction = "\n\nIMPORTANT: Respond ONLY with a valid JSON object. No markdown, no explanation."

// AnthropicProvider sends the exchange to the Claude Messages API
type AnthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// NewAnthropicProvider creates a provider from the anthropic config section
func NewAnthropicProvider(cfg config.AnthropicConfig, opts ...option.RequestOption) *AnthropicProvider {
	opts = append([]option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}, opts...)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: maxTokens,
	}
}

// Name returns "anthropic"
func (p *AnthropicProvider) Name() string {
	return config.ProviderAnthropic
}

// Chat sends the persona as system prompt and the task line as the user turn
func (p *AnthropicProvider) Chat(ctx context.Context, req Request) (string, error) {
	systemPrompt := req.Persona
	if req.JSON {
		systemPrompt += jsonInstruction
	}

	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(req.UserMessage()),
				},
			},
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &Error{Kind: KindStatus, Provider: p.Name(), StatusCode: apiErr.StatusCode, Detail: apiErr.Error(), Err: err}
		}
		if isTransport(err) {
			return "", &Error{Kind: KindTransport, Provider: p.Name(), Detail: err.Error(), Err: err}
		}
		return "", &Error{Kind: KindMalformed, Provider: p.Name(), Detail: err.Error(), Err: err}
	}

	if len(message.Content) == 0 {
		return "", &Error{Kind: KindMalformed, Provider: p.Name(), Detail: "no content blocks in response"}
	}

	var response string
	for _, block := range message.Content {
		textBlock := block.AsText()
		if textBlock.Text != "" {
			response += textBlock.Text
		}
	}
	if response == "" {
		return "", &Error{Kind: KindEmpty, Provider: p.Name(), Detail: "no text blocks in response"}
	}

	return response, nil
}
