package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seocoach-backend/internal/handlers"
	"seocoach-backend/internal/history"
	"seocoach-backend/internal/llm"
	"seocoach-backend/internal/models"
	"seocoach-backend/internal/retrieval"
	"seocoach-backend/internal/services"
	"seocoach-backend/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type testServer struct {
	router http.Handler
	llm    *llm.FakeClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.UpsertDocuments(t.Context(), []models.Document{
		{Source: "meta.md", Title: "Meta descriptions", Section: "Length", Topic: "SEO",
			Body: "Write meta descriptions of about 155 characters."},
	}))

	fake := &llm.FakeClient{Reply: "1. Rewrite your meta descriptions (source: meta.md, Length)"}
	chat := services.NewChatService(
		retrieval.NewClient(s),
		history.NewClient(s),
		llm.NewCompleter(fake, 800),
		nil,
		services.ChatConfig{TopK: 5, MaxTopK: 10, MaxBodyChars: 1200, HistoryWindow: 20, DisplayHistory: 50, Topic: "SEO"},
	)

	router := NewRouter(RouterDependencies{
		AuthHandler: handlers.NewAuthHandler(services.NewAuthService(s, testSecret, time.Hour)),
		ChatHandler: handlers.NewChatHandlers(chat),
		KBHandler:   handlers.NewKBHandler(services.NewKBService(s, 5, 10, "SEO")),
		JWTSecret:   testSecret,
		Ping:        s.Ping,
	})
	return &testServer{router: router, llm: fake}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","store":"ok"}`, rec.Body.String())
}

func TestAskFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	session := decode[models.SessionResponse](t, rec)
	require.NotEmpty(t, session.SessionID)

	rec = ts.do(t, http.MethodPost, "/v1/sessions/"+session.SessionID+"/messages", "",
		models.AskRequest{Question: "how long should meta descriptions be?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ask := decode[models.AskResponse](t, rec)
	assert.Equal(t, ts.llm.Reply, ask.Reply)
	assert.Equal(t, []models.Citation{{Source: "meta.md", Section: "Length"}}, ask.Sources)
	assert.Equal(t, "Sources: meta.md • Length", ask.CitationLine)

	rec = ts.do(t, http.MethodGet, "/v1/sessions/"+session.SessionID+"/messages?limit=10", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	transcript := decode[models.TranscriptResponse](t, rec)
	require.Len(t, transcript.Messages, 2)
	assert.Equal(t, models.RoleUser, transcript.Messages[0].Role)
	assert.Equal(t, models.RoleAssistant, transcript.Messages[1].Role)
}

func TestAskRejectsBlankQuestion(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/v1/sessions/s1/messages", "", models.AskRequest{Question: "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, ts.llm.Requests)

	rec = ts.do(t, http.MethodGet, "/v1/sessions/s1/messages?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdentityScopesTranscript(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/auth/signup", "", models.SignupRequest{Email: "coach@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = ts.do(t, http.MethodPost, "/v1/auth/login", "", models.LoginRequest{Email: "coach@example.com", Password: "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode[models.AuthResponse](t, rec).AccessToken

	rec = ts.do(t, http.MethodPost, "/v1/sessions/shared/messages", token, models.AskRequest{Question: "meta?"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/v1/sessions/shared/messages", token, nil)
	assert.Len(t, decode[models.TranscriptResponse](t, rec).Messages, 2)

	rec = ts.do(t, http.MethodGet, "/v1/sessions/shared/messages", "", nil)
	assert.Empty(t, decode[models.TranscriptResponse](t, rec).Messages)

	rec = ts.do(t, http.MethodGet, "/v1/sessions/shared/messages", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/search?q=meta+descriptions&k=3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[models.SearchResponse](t, rec)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, "meta.md", res.Hits[0].Source)

	rec = ts.do(t, http.MethodGet, "/v1/search?q=meta&topic=Legal", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.SearchResponse](t, rec).Hits)

	rec = ts.do(t, http.MethodGet, "/v1/search?q=", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRequiresToken(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"documents": []models.Document{{Source: "links.md", Body: "Use descriptive anchor text."}}}

	rec := ts.do(t, http.MethodPost, "/v1/documents", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.do(t, http.MethodPost, "/v1/auth/signup", "", models.SignupRequest{Email: "a@example.com", Password: "correct-horse"})
	rec = ts.do(t, http.MethodPost, "/v1/auth/login", "", models.LoginRequest{Email: "a@example.com", Password: "correct-horse"})
	token := decode[models.AuthResponse](t, rec).AccessToken

	rec = ts.do(t, http.MethodPost, "/v1/documents", token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"upserted":1}`, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/v1/search?q=anchor", "", nil)
	assert.Len(t, decode[models.SearchResponse](t, rec).Hits, 1)
}
