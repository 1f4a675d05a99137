package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by New when no credential is configured.
var ErrMissingAPIKey = errors.New("API key is required")

// Role of one chat turn. The system instruction travels in Request.System.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

type Response struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Client sends one chat completion to a model provider.
type Client interface {
	Chat(ctx context.Context, req Request) (*Response, error)
	Model() string
}

type Config struct {
	Provider string // "anthropic" or "openai"
	APIKey   string
	BaseURL  string
	Model    string
}

// New returns the Client for cfg.Provider.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	switch cfg.Provider {
	case "", "anthropic":
		return newAnthropicClient(cfg), nil
	case "openai":
		return newOpenAIClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

// APIError is a non-2xx answer from the provider, as opposed to a transport
// failure.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
