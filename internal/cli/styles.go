package cli

import (
	"fmt"
	"io"
	"strings"

	"seocoach-backend/internal/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	sourcesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func printMessage(w io.Writer, m models.Message) {
	if m.Role == models.RoleAssistant {
		fmt.Fprintf(w, "%s %s\n", assistantStyle.Render("coach>"), m.Content)
		return
	}
	fmt.Fprintf(w, "%s %s\n", userStyle.Render("you>"), m.Content)
}

func printHit(w io.Writer, n int, h models.RetrievalHit) {
	name := h.Title
	if name == "" {
		name = h.Source
	}
	label := fmt.Sprintf("%d. %s", n, name)
	if h.Section != "" {
		label += " • " + h.Section
	}
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(label), scoreStyle.Render(fmt.Sprintf("(%.3f)", h.Score)))
	fmt.Fprintf(w, "   %s\n", sourcesStyle.Render(h.Source))
	body := strings.Join(strings.Fields(h.Body), " ")
	if r := []rune(body); len(r) > 160 {
		body = string(r[:160]) + "…"
	}
	fmt.Fprintf(w, "   %s\n", body)
}
