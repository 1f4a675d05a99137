package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"seocoach-backend/internal/llm"
	"seocoach-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hit(source, title, section, body string) models.RetrievalHit {
	return models.RetrievalHit{Document: models.Document{Source: source, Title: title, Section: section, Body: body}}
}

func TestFormatContextEmpty(t *testing.T) {
	assert.Equal(t, "", FormatContext(nil, 1200))
	assert.Equal(t, "", FormatContext([]models.RetrievalHit{}, 1200))
}

func TestFormatContextHeadersAndLayout(t *testing.T) {
	hits := []models.RetrievalHit{
		hit("seo-basics.md", "SEO Basics", "Titles", "  Keep titles under 60 characters.\n"),
		hit("links.md", "", "", "Use descriptive anchor text."),
	}

	got := FormatContext(hits, 1200)

	want := "[Doc 1] SEO Basics — Titles\nKeep titles under 60 characters.\n\n" +
		"[Doc 2] links.md\nUse descriptive anchor text."
	assert.Equal(t, want, got)
}

func TestFormatContextTruncation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		max       int
		truncated bool
	}{
		{name: "shorter than limit", body: strings.Repeat("a", 10), max: 20, truncated: false},
		{name: "exactly the limit", body: strings.Repeat("a", 20), max: 20, truncated: false},
		{name: "one over", body: strings.Repeat("a", 21), max: 20, truncated: true},
		{name: "multibyte runes", body: strings.Repeat("é", 30), max: 20, truncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatContext([]models.RetrievalHit{hit("s.md", "T", "", tt.body)}, tt.max)
			_, body, ok := strings.Cut(got, "\n")
			require.True(t, ok)

			assert.Equal(t, tt.truncated, strings.HasSuffix(body, "…"))
			limit := tt.max
			if tt.truncated {
				limit++
			}
			assert.LessOrEqual(t, utf8.RuneCountInString(body), limit)
		})
	}
}

func TestFormatContextDefaultsLimit(t *testing.T) {
	got := FormatContext([]models.RetrievalHit{hit("s.md", "T", "", strings.Repeat("x", 1300))}, 0)
	_, body, _ := strings.Cut(got, "\n")
	assert.Equal(t, DefaultMaxBodyChars+1, utf8.RuneCountInString(body))
}

func TestAssemble(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "what is a canonical tag?"},
		{Role: models.RoleAssistant, Content: "1. It marks the preferred URL"},
		{Role: models.Role("system"), Content: "odd role"},
	}

	msgs := Assemble(history, "[Doc 1] Canonicals\nbody", "how do I add one?")

	require.Len(t, msgs, len(history)+1)
	assert.Equal(t, llm.Message{Role: "user", Content: "what is a canonical tag?"}, msgs[0])
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "user", msgs[2].Role)
	assert.Equal(t, llm.Message{
		Role:    "user",
		Content: "[CONTEXT]\n[Doc 1] Canonicals\nbody\n[/CONTEXT]\n\nQuestion: how do I add one?",
	}, msgs[3])
}

func TestAssembleEmptyContextKeepsQuestion(t *testing.T) {
	msgs := Assemble(nil, "", "seo basics?")

	require.Len(t, msgs, 1)
	assert.Equal(t, "[CONTEXT]\n\n[/CONTEXT]\n\nQuestion: seo basics?", msgs[0].Content)
}
