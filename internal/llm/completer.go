package llm

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// SystemPrompt is sent with every completion.
const SystemPrompt = "You are an SEO coach. Use only the provided CONTEXT for facts. " +
	"If context is weak, state what is missing. Return numbered, actionable steps. " +
	"Cite like (source: file, section)."

// Fixed reply prefixes used in place of a model answer.
const (
	APIErrorPrefix    = "Model API error: "
	CallFailedPrefix  = "Model call failed: "
	MissingKeyMessage = "Model API key not configured."
)

// Completer turns a conversation into reply text. It never fails: provider
// problems come back as one of the fixed error replies so they can be shown
// and persisted like any other answer.
type Completer struct {
	client    Client
	maxTokens int
}

// NewCompleter wraps client. A nil client yields MissingKeyMessage on every call.
func NewCompleter(client Client, maxTokens int) *Completer {
	if maxTokens <= 0 {
		maxTokens = 800
	}
	return &Completer{client: client, maxTokens: maxTokens}
}

// Complete returns the model reply, or an error reply. It does not retry.
func (c *Completer) Complete(ctx context.Context, messages []Message) string {
	if c.client == nil {
		slog.WarnContext(ctx, "completion skipped, no model client configured")
		return MissingKeyMessage
	}

	resp, err := c.client.Chat(ctx, Request{
		System:    SystemPrompt,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			slog.ErrorContext(ctx, "model api error",
				"model", c.client.Model(),
				"status_code", apiErr.StatusCode,
				"error", apiErr.Message)
			return APIErrorPrefix + apiErr.Message
		}
		slog.ErrorContext(ctx, "model call failed", "model", c.client.Model(), "error", err)
		return CallFailedPrefix + err.Error()
	}

	return resp.Content
}

// IsErrorReply reports whether reply is one of the fixed error replies.
func IsErrorReply(reply string) bool {
	return reply == MissingKeyMessage ||
		strings.HasPrefix(reply, APIErrorPrefix) ||
		strings.HasPrefix(reply, CallFailedPrefix)
}
