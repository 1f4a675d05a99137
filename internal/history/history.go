package history

import (
	"context"
	"log/slog"
	"time"

	"seocoach-backend/internal/id"
	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"
)

// Client is the per-session message log used by the chat loop. It never
// surfaces storage errors: appends become no-ops and fetches return nothing.
type Client struct {
	store store.HistoryStore
	now   func() time.Time
}

func NewClient(s store.HistoryStore) *Client {
	return &Client{store: s, now: time.Now}
}

// Append stores one message with a fresh id and the current time. The stored
// message is returned; on failure the zero Message is returned.
func (c *Client) Append(ctx context.Context, sessionID, identity string, role models.Role, content string) models.Message {
	msg := models.Message{
		ID:        id.New(),
		SessionID: sessionID,
		Identity:  identity,
		Timestamp: c.now().UTC(),
		Role:      models.NormalizeRole(role),
		Content:   content,
	}
	if err := c.store.AppendMessage(ctx, msg); err != nil {
		slog.WarnContext(ctx, "history append failed",
			"error", err,
			"role", msg.Role)
		return models.Message{}
	}
	return msg
}

// Fetch returns the most recent limit messages of (sessionID, identity),
// oldest first.
func (c *Client) Fetch(ctx context.Context, sessionID, identity string, limit int) []models.Message {
	if limit <= 0 {
		return []models.Message{}
	}
	msgs, err := c.store.ListMessages(ctx, store.ListMessagesParams{
		SessionID: sessionID,
		Identity:  identity,
		Limit:     limit,
	})
	if err != nil {
		slog.WarnContext(ctx, "history fetch failed", "error", err)
		return []models.Message{}
	}
	return msgs
}
