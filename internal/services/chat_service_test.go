package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"seocoach-backend/internal/history"
	"seocoach-backend/internal/llm"
	"seocoach-backend/internal/models"
	"seocoach-backend/internal/retrieval"
	"seocoach-backend/internal/store"
	"seocoach-backend/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChatConfig = ChatConfig{
	TopK:           5,
	MaxTopK:        10,
	MaxBodyChars:   1200,
	HistoryWindow:  20,
	DisplayHistory: 50,
	Topic:          "SEO",
}

func newTestChat(t *testing.T, s store.Store, client llm.Client) *ChatService {
	t.Helper()
	return NewChatService(
		retrieval.NewClient(s),
		history.NewClient(s),
		llm.NewCompleter(client, 800),
		nil,
		testChatConfig,
	)
}

func newSQLite(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedKB(t *testing.T, s store.DocumentStore) {
	t.Helper()
	require.NoError(t, s.UpsertDocuments(context.Background(), []models.Document{
		{Source: "canonicals.md", Title: "Canonical tags", Section: "Basics", Topic: "SEO",
			Body: "A canonical tag tells search engines which URL is the preferred version of a page."},
		{Source: "titles.md", Title: "Title tags", Topic: "SEO",
			Body: "Keep title tags unique and under sixty characters."},
		{Source: "terms.md", Title: "Terms of service", Section: "Canonical clause", Topic: "Legal",
			Body: "The canonical version of these terms is the English text."},
	}))
}

func TestTurnEmptyStoreStillAnswers(t *testing.T) {
	fake := &llm.FakeClient{Reply: "1. Start with keyword research."}
	chat := newTestChat(t, newSQLite(t), fake)

	res, err := chat.Turn(context.Background(), TurnRequest{SessionID: "s1", Question: "seo basics"})
	require.NoError(t, err)

	assert.Equal(t, "1. Start with keyword research.", res.Reply)
	assert.Empty(t, res.Hits)
	assert.Empty(t, res.CitationLine)

	req := fake.LastRequest()
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "[CONTEXT]\n\n[/CONTEXT]\n\nQuestion: seo basics", req.Messages[0].Content)
	assert.Equal(t, llm.SystemPrompt, req.System)
}

func TestTurnTransportErrorIsPersisted(t *testing.T) {
	s := newSQLite(t)
	fake := &llm.FakeClient{Err: errors.New("dial tcp: i/o timeout")}
	chat := newTestChat(t, s, fake)

	res, err := chat.Turn(context.Background(), TurnRequest{SessionID: "s1", Question: "why?"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Reply, llm.CallFailedPrefix))

	msgs, err := chat.Transcript(context.Background(), "s1", "", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleUser, msgs[0].Role)
	assert.Equal(t, "why?", msgs[0].Content)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, res.Reply, msgs[1].Content)
}

func TestTurnTopicFilter(t *testing.T) {
	s := newSQLite(t)
	seedKB(t, s)
	fake := &llm.FakeClient{Reply: "ok"}
	chat := newTestChat(t, s, fake)

	res, err := chat.Turn(context.Background(), TurnRequest{SessionID: "s1", Question: "canonical"})
	require.NoError(t, err)

	require.NotEmpty(t, res.Hits)
	for _, h := range res.Hits {
		assert.Equal(t, "SEO", h.Topic)
	}
	assert.Equal(t, "Sources: canonicals.md • Basics", res.CitationLine)
	assert.Contains(t, fake.LastRequest().Messages[0].Content, "[Doc 1] Canonical tags — Basics")

	noFilter := ""
	res, err = chat.Turn(context.Background(), TurnRequest{SessionID: "s1", Question: "canonical", Topic: &noFilter})
	require.NoError(t, err)
	assert.Len(t, res.Hits, 2)
}

func TestTurnWindowExcludesCurrentTurn(t *testing.T) {
	s := newSQLite(t)
	fake := &llm.FakeClient{Reply: "answer"}
	chat := newTestChat(t, s, fake)
	ctx := context.Background()

	_, err := chat.Turn(ctx, TurnRequest{SessionID: "s1", Question: "first"})
	require.NoError(t, err)
	_, err = chat.Turn(ctx, TurnRequest{SessionID: "s1", Question: "second"})
	require.NoError(t, err)

	msgs := fake.LastRequest().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, llm.Message{Role: "user", Content: "first"}, msgs[0])
	assert.Equal(t, llm.Message{Role: "assistant", Content: "answer"}, msgs[1])
	assert.True(t, strings.HasSuffix(msgs[2].Content, "Question: second"))

	// other identities do not see this session's turns
	_, err = chat.Turn(ctx, TurnRequest{SessionID: "s1", Identity: "b@example.com", Question: "third"})
	require.NoError(t, err)
	assert.Len(t, fake.LastRequest().Messages, 1)
}

func TestTurnHistoryWindowBound(t *testing.T) {
	s := newSQLite(t)
	fake := &llm.FakeClient{Reply: "answer"}
	cfg := testChatConfig
	cfg.HistoryWindow = 2
	chat := NewChatService(retrieval.NewClient(s), history.NewClient(s), llm.NewCompleter(fake, 800), nil, cfg)
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three"} {
		_, err := chat.Turn(ctx, TurnRequest{SessionID: "s1", Question: q})
		require.NoError(t, err)
	}

	msgs := fake.LastRequest().Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "two", msgs[0].Content)
	assert.Equal(t, "answer", msgs[1].Content)
}

func TestTurnRejectsBlankInput(t *testing.T) {
	s := newSQLite(t)
	fake := &llm.FakeClient{Reply: "x"}
	chat := newTestChat(t, s, fake)

	_, err := chat.Turn(context.Background(), TurnRequest{SessionID: "s1", Question: "  \n"})
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = chat.Turn(context.Background(), TurnRequest{Question: "hi"})
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.Empty(t, fake.Requests)
	msgs, err := chat.Transcript(context.Background(), "s1", "", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestTurnWithUnavailableStore(t *testing.T) {
	fake := &llm.FakeClient{Reply: "1. Generic advice."}
	chat := newTestChat(t, store.Unavailable{}, fake)

	res, err := chat.Turn(context.Background(), TurnRequest{SessionID: "s1", Question: "seo basics"})
	require.NoError(t, err)
	assert.Equal(t, "1. Generic advice.", res.Reply)
	assert.Empty(t, res.Hits)
}

func TestTurnMissingModelClient(t *testing.T) {
	chat := newTestChat(t, newSQLite(t), nil)

	res, err := chat.Turn(context.Background(), TurnRequest{SessionID: "s1", Question: "hi"})
	require.NoError(t, err)
	assert.Equal(t, llm.MissingKeyMessage, res.Reply)
}

func TestTopKClamp(t *testing.T) {
	chat := newTestChat(t, store.Unavailable{}, nil)

	big, zero := 50, 0
	assert.Equal(t, 5, chat.topK(nil))
	assert.Equal(t, 10, chat.topK(&big))
	assert.Equal(t, 1, chat.topK(&zero))
}

func TestCitationLine(t *testing.T) {
	hits := []models.RetrievalHit{
		{Document: models.Document{Source: "a.md", Section: "Intro"}},
		{Document: models.Document{Source: "b.md"}},
	}
	assert.Equal(t, "Sources: a.md • Intro, b.md", CitationLine(hits))
	assert.Equal(t, "", CitationLine(nil))
	assert.Equal(t, []models.Citation{{Source: "a.md", Section: "Intro"}, {Source: "b.md"}}, Citations(hits))
}

type limitRecorder struct {
	store.Store
	limits []int
}

func (r *limitRecorder) ListMessages(ctx context.Context, arg store.ListMessagesParams) ([]models.Message, error) {
	r.limits = append(r.limits, arg.Limit)
	return r.Store.ListMessages(ctx, arg)
}

func TestTranscriptLimitIsBounded(t *testing.T) {
	rec := &limitRecorder{Store: newSQLite(t)}
	chat := newTestChat(t, rec, &llm.FakeClient{Reply: "ok"})

	for _, limit := range []int{0, 10, 1000} {
		_, err := chat.Transcript(context.Background(), "s1", "", limit)
		require.NoError(t, err)
	}
	assert.Equal(t, []int{testChatConfig.DisplayHistory, 10, MaxTranscriptLimit}, rec.limits)
}
