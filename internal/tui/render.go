package tui

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// DefaultWrap is the word wrap width used when the terminal size is unknown.
const DefaultWrap = 80

// RenderMarkdown renders markdown for a terminal. style is a glamour standard
// style name such as "dark", "light" or "notty"; empty selects one automatically.
func RenderMarkdown(markdown, style string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWrap
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}
