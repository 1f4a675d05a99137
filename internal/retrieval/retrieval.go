package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"
)

// Client ranks knowledge-base documents for a question. Backend failures are
// logged and reported as no hits.
type Client struct {
	docs store.DocumentStore
}

func NewClient(docs store.DocumentStore) *Client {
	return &Client{docs: docs}
}

// Search returns at most k hits in descending score order. A blank query or a
// non-positive k returns no hits without calling the backend. A non-empty
// topic restricts hits to documents with that topic.
func (c *Client) Search(ctx context.Context, query string, k int, topic string) []models.RetrievalHit {
	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return []models.RetrievalHit{}
	}

	hits, err := c.docs.Search(ctx, store.SearchParams{Query: query, Limit: k, Topic: topic})
	if err != nil {
		slog.WarnContext(ctx, "retrieval failed, continuing without context",
			"error", err,
			"topic", topic,
			"k", k)
		return []models.RetrievalHit{}
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
