// Package prompt renders retrieval hits and chat history into the turns sent
// to the model.
package prompt

import (
	"fmt"
	"strings"

	"seocoach-backend/internal/llm"
	"seocoach-backend/internal/models"
)

// DefaultMaxBodyChars bounds each snippet body, in characters.
const DefaultMaxBodyChars = 1200

const ellipsis = "…"

// FormatContext renders hits as numbered snippets separated by blank lines.
// No hits yields "".
func FormatContext(hits []models.RetrievalHit, maxBodyChars int) string {
	if len(hits) == 0 {
		return ""
	}
	if maxBodyChars <= 0 {
		maxBodyChars = DefaultMaxBodyChars
	}

	entries := make([]string, 0, len(hits))
	for i, h := range hits {
		entries = append(entries, header(i+1, h.Document)+"\n"+truncate(strings.TrimSpace(h.Body), maxBodyChars))
	}
	return strings.Join(entries, "\n\n")
}

func header(n int, doc models.Document) string {
	name := doc.Title
	if name == "" {
		name = doc.Source
	}
	h := fmt.Sprintf("[Doc %d] %s", n, name)
	if doc.Section != "" {
		h += " — " + doc.Section
	}
	return h
}

// truncate cuts s to max runes and marks the cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + ellipsis
}

// Assemble maps history to model turns and appends the question with its
// context as the final user turn.
func Assemble(history []models.Message, context, question string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, llm.Message{
			Role:    string(models.NormalizeRole(m.Role)),
			Content: m.Content,
		})
	}
	return append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: UserTurn(context, question),
	})
}

// UserTurn is the final user message of a turn.
func UserTurn(context, question string) string {
	return "[CONTEXT]\n" + context + "\n[/CONTEXT]\n\nQuestion: " + question
}
