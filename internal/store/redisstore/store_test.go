package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*HistoryStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(client, "")
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func appendTurns(t *testing.T, s *HistoryStore, sessionID, identity string, n int) {
	t.Helper()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i := 1; i <= n; i++ {
		role := models.RoleUser
		if i%2 == 0 {
			role = models.RoleAssistant
		}
		require.NoError(t, s.AppendMessage(context.Background(), models.Message{
			ID:        int64(1_800_000_000_000_000_000 + i),
			SessionID: sessionID,
			Identity:  identity,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Role:      role,
			Content:   fmt.Sprintf("turn %d", i),
		}))
	}
}

func TestAppendThenListKeepsOrder(t *testing.T) {
	s, mr := newTestStore(t)
	appendTurns(t, s, "s1", "", 3)

	msgs, err := s.ListMessages(context.Background(), store.ListMessagesParams{SessionID: "s1", Limit: 50})
	require.NoError(t, err)

	require.Len(t, msgs, 3)
	assert.Equal(t, "turn 1", msgs[0].Content)
	assert.Equal(t, "turn 3", msgs[2].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, int64(1_800_000_000_000_000_003), msgs[2].ID)
	assert.True(t, msgs[0].Timestamp.Equal(time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC)))
	assert.True(t, mr.Exists("chat:s1:"))
}

func TestListReturnsNewestWindow(t *testing.T) {
	s, _ := newTestStore(t)
	appendTurns(t, s, "s1", "", 5)

	msgs, err := s.ListMessages(context.Background(), store.ListMessagesParams{SessionID: "s1", Limit: 2})
	require.NoError(t, err)

	require.Len(t, msgs, 2)
	assert.Equal(t, "turn 4", msgs[0].Content)
	assert.Equal(t, "turn 5", msgs[1].Content)

	msgs, err = s.ListMessages(context.Background(), store.ListMessagesParams{SessionID: "s1", Limit: 0})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestIdentitiesAreIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	appendTurns(t, s, "s1", "a@example.com", 2)
	appendTurns(t, s, "s1", "", 1)

	msgs, err := s.ListMessages(context.Background(), store.ListMessagesParams{SessionID: "s1", Identity: "a@example.com", Limit: 50})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, "a@example.com", m.Identity)
	}

	msgs, err = s.ListMessages(context.Background(), store.ListMessagesParams{SessionID: "s1", Limit: 50})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].Identity)

	msgs, err = s.ListMessages(context.Background(), store.ListMessagesParams{SessionID: "s2", Identity: "a@example.com", Limit: 50})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestOpenKeepsClientWhenServerIsDown(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s, err := Open(ctx, "redis://127.0.0.1:1/0", "chat")
	require.NoError(t, err)
	defer s.Close()
	assert.Error(t, s.Ping(ctx))

	_, err = Open(ctx, "not-a-url", "chat")
	assert.ErrorContains(t, err, "parse redis url")
}

func TestOpenRecoversOnceServerIsUp(t *testing.T) {
	mr := miniredis.RunT(t)
	url := "redis://" + mr.Addr() + "/0"
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := Open(ctx, url, "coach")
	require.NoError(t, err)
	defer s.Close()
	assert.Error(t, s.Ping(ctx))

	require.NoError(t, mr.Restart())
	require.NoError(t, s.Ping(ctx))
	appendTurns(t, s, "s1", "", 1)
	assert.True(t, mr.Exists("coach:s1:"))
}
