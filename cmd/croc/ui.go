package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"crocsthepen/internal/types"
)

// Brand palette.
var (
	accentColor = lipgloss.Color("#26a269") // croc green
	errorColor  = lipgloss.Color("#e53935")
	mutedColor  = lipgloss.Color("#8a8f98")
	creditColor = lipgloss.Color("#FFC107")
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(errorColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	creditStyle = lipgloss.NewStyle().Foreground(creditColor).Bold(true)
)

func renderError(err error) string {
	return errorStyle.Render("Error: ") + err.Error()
}

func renderCredits(n int) string {
	return creditStyle.Render(fmt.Sprintf("%d credits", n))
}

// renderMarkdown pretty-prints a finalized assistant message. Falls back to
// the raw text when the terminal renderer cannot be built.
func renderMarkdown(text string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

// renderGrounding formats web citations attached to an answer.
func renderGrounding(chunks []types.GroundingChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(mutedStyle.Render("Sources:"))
	b.WriteString("\n")
	seen := make(map[string]bool)
	for _, c := range chunks {
		if c.URI == "" || seen[c.URI] {
			continue
		}
		seen[c.URI] = true
		title := c.Title
		if title == "" {
			title = c.URI
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  - %s (%s)", title, c.URI)))
		b.WriteString("\n")
	}
	return b.String()
}

// streamPrinter writes only the unseen suffix of the accumulating message,
// so fragments appear as they arrive.
type streamPrinter struct {
	printed int
}

func (p *streamPrinter) update(m types.Message) {
	if len(m.Content) > p.printed {
		fmt.Print(m.Content[p.printed:])
		p.printed = len(m.Content)
	}
}

func (p *streamPrinter) finish() {
	if p.printed > 0 {
		fmt.Println()
	}
}
