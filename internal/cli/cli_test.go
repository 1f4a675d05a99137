package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"seocoach-backend/internal/app"
	"seocoach-backend/internal/history"
	"seocoach-backend/internal/llm"
	"seocoach-backend/internal/retrieval"
	"seocoach-backend/internal/services"
	"seocoach-backend/internal/store/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kbYAML = `documents:
  - source: titles.md
    title: Title tags
    section: Length
    body: Keep title tags under sixty characters.
  - source: robots.md
    title: Robots
    body: Use robots.txt to keep crawlers out of staging sites.
`

type harness struct {
	factory AppFactory
	llm     *llm.FakeClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "coach.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fake := &llm.FakeClient{Reply: "1. Shorten your titles."}
	cfg := services.ChatConfig{TopK: 5, MaxTopK: 10, MaxBodyChars: 1200, HistoryWindow: 20, DisplayHistory: 50, Topic: "SEO"}

	return &harness{
		llm: fake,
		factory: func(context.Context) (*app.App, error) {
			return &app.App{
				Store: nopClose{s},
				Chat:  services.NewChatService(retrieval.NewClient(s), history.NewClient(s), llm.NewCompleter(fake, 800), nil, cfg),
				KB:    services.NewKBService(s, 5, 10, "SEO"),
			}, nil
		},
	}
}

// nopClose keeps the store open across commands; the test closes it.
type nopClose struct {
	*sqlite.SQLiteStore
}

func (nopClose) Close() error { return nil }

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(h.factory)
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootVersionAndHelp(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev")

	out, err = h.run(t, "", "--help")
	require.NoError(t, err)
	for _, sub := range []string{"chat", "history", "search", "seed"} {
		assert.Contains(t, out, sub)
	}
}

func TestSeedSearchChatHistory(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(kbYAML), 0o600))

	out, err := h.run(t, "", "seed", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 2 documents")

	out, err = h.run(t, "", "search", "title", "length")
	require.NoError(t, err)
	assert.Contains(t, out, "Title tags • Length")
	assert.Contains(t, out, "Sources: titles.md • Length")

	out, err = h.run(t, "how long should titles be?\n\n   \nquit\n", "chat", "--session", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "Session s1")
	assert.Contains(t, out, "1. Shorten your titles.")
	assert.Contains(t, out, "Sources: titles.md • Length")
	assert.Len(t, h.llm.Requests, 1)

	out, err = h.run(t, "", "history", "s1")
	require.NoError(t, err)
	assert.Contains(t, out, "how long should titles be?")
	assert.Contains(t, out, "1. Shorten your titles.")

	out, err = h.run(t, "", "history", "s1", "--identity", "someone@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "No messages found.")
}

func TestChatResumesTranscript(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "first question\n", "chat", "--session", "s2")
	require.NoError(t, err)

	out, err := h.run(t, "", "chat", "--session", "s2")
	require.NoError(t, err)
	assert.Contains(t, out, "first question")
}

func TestSeedErrors(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(t, "", "seed", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = h.run(t, "", "seed")
	assert.Error(t, err)
}
