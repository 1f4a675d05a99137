// Package redisstore keeps chat history in Redis lists, one list per
// (session, identity) scope. It implements only store.HistoryStore.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"

	"github.com/redis/go-redis/v9"
)

var _ store.HistoryStore = (*HistoryStore)(nil)

type HistoryStore struct {
	client *redis.Client
	prefix string
}

// Open parses url and pings. An unreachable server is logged, not fatal;
// go-redis dials again on the next command.
func Open(ctx context.Context, url, prefix string) (*HistoryStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		slog.WarnContext(ctx, "redis not reachable yet, keeping client", "error", err)
	}
	return New(client, prefix), nil
}

func New(client *redis.Client, prefix string) *HistoryStore {
	if prefix == "" {
		prefix = "chat"
	}
	return &HistoryStore{client: client, prefix: prefix}
}

func (s *HistoryStore) key(sessionID, identity string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, sessionID, identity)
}

// AppendMessage pushes to the tail, so list order is insertion order.
func (s *HistoryStore) AppendMessage(ctx context.Context, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(msg.SessionID, msg.Identity), payload).Err(); err != nil {
		return fmt.Errorf("rpush message: %w", err)
	}
	return nil
}

func (s *HistoryStore) ListMessages(ctx context.Context, arg store.ListMessagesParams) ([]models.Message, error) {
	if arg.Limit <= 0 {
		return []models.Message{}, nil
	}
	raw, err := s.client.LRange(ctx, s.key(arg.SessionID, arg.Identity), int64(-arg.Limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange messages: %w", err)
	}

	messages := make([]models.Message, 0, len(raw))
	for _, r := range raw {
		var m models.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("unmarshal message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

func (s *HistoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *HistoryStore) Close() error {
	return s.client.Close()
}
