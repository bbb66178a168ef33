package ai

import (
	"context"
	"fmt"

	"github.com/persona-agent/internal/config"
	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

// Request is the envelope of one chat exchange: system = Persona,
// user = "Task: UserText". It is built per call and discarded.
type Request struct {
	Persona  string
	Task     string
	UserText string
	// JSON asks the endpoint for a JSON object response
	JSON bool
}

// UserMessage renders the user-role content
func (r Request) UserMessage() string {
	if r.Task == "" {
		return r.UserText
	}
	return r.Task + ": " + r.UserText
}

// Provider submits a single request to a chat-completion backend and
// returns the first choice's text. Failures must be *Error.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req Request) (string, error)
}

// Client is the prompt gateway shared by every flow
type Client struct {
	provider    Provider
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// New creates a gateway over an explicit provider
func New(provider Provider, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	return &Client{
		provider:    provider,
		rateLimiter: limiter,
		log:         log.WithComponent("ai"),
	}
}

// NewClient creates a gateway for the provider selected in config
func NewClient(cfg *config.Config, limiter *ratelimit.MultiLimiter, log *logger.Logger) (*Client, error) {
	var provider Provider
	switch cfg.LLM.Provider {
	case config.ProviderOpenAI:
		provider = NewOpenAIProvider(cfg.LLM)
	case config.ProviderAnthropic:
		provider = NewAnthropicProvider(cfg.Anthropic)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
	return New(provider, limiter, log), nil
}

// Provider returns the backend name
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Complete sends persona/task/userText and returns the completion text unmodified
func (c *Client) Complete(ctx context.Context, persona, task, userText string) (string, error) {
	return c.Do(ctx, Request{Persona: persona, Task: task, UserText: userText})
}

// CompleteJSON is Complete with a JSON object response format
func (c *Client) CompleteJSON(ctx context.Context, persona, task, userText string) (string, error) {
	return c.Do(ctx, Request{Persona: persona, Task: task, UserText: userText, JSON: true})
}

// RunTask resolves a catalog task and completes it
func (c *Client) RunTask(ctx context.Context, persona, taskName, userText string) (string, error) {
	task, ok := Tasks[taskName]
	if !ok {
		return "", &Error{Kind: KindRequest, Provider: c.provider.Name(), Detail: fmt.Sprintf("unknown task %q", taskName)}
	}
	c.log.WithTask(taskName).Debug().Msg("Running task")
	return c.Do(ctx, Request{Persona: persona, Task: task.Instruction, UserText: userText, JSON: task.JSON})
}

// Do submits a request. Every failure is returned as *Error.
func (c *Client) Do(ctx context.Context, req Request) (string, error) {
	if req.Persona == "" {
		return "", &Error{Kind: KindRequest, Provider: c.provider.Name(), Detail: "persona is empty"}
	}

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, ratelimit.LimiterLLM); err != nil {
			return "", &Error{Kind: KindTransport, Provider: c.provider.Name(), Detail: "rate limit wait", Err: err}
		}
	}

	c.log.Debug().
		Str("provider", c.provider.Name()).
		Bool("json", req.JSON).
		Int("user_len", len(req.UserText)).
		Msg("Sending chat completion")

	text, err := c.provider.Chat(ctx, req)
	if err != nil {
		if KindOf(err) == "" {
			err = &Error{Kind: KindTransport, Provider: c.provider.Name(), Detail: err.Error(), Err: err}
		}
		c.log.Error().Err(err).Str("kind", string(KindOf(err))).Msg("Chat completion failed")
		return "", err
	}

	c.log.Debug().Int("response_len", len(text)).Msg("Received chat completion")
	return text, nil
}
