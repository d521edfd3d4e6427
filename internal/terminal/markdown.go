package terminal

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer wraps glamour for answer rendering.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
}

func newMarkdownRenderer(width int, style string) (*markdownRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamourOption(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &markdownRenderer{renderer: r}, nil
}

// Render returns text rendered for the terminal, or text itself when
// rendering fails.
func (m *markdownRenderer) Render(text string) string {
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

// glamourOption maps a profile style name to a glamour option.
func glamourOption(style string) glamour.TermRendererOption {
	switch style {
	case "dark", "light", "notty", "ascii":
		return glamour.WithStandardStyle(style)
	default:
		return glamour.WithAutoStyle()
	}
}
