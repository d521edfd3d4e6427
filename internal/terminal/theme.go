package terminal

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles are the lipgloss styles of the view, bound to one output.
type Styles struct {
	Progress lipgloss.Style
	Meta     lipgloss.Style
	Error    lipgloss.Style
	Status   lipgloss.Style
	Label    lipgloss.Style
	Prompt   lipgloss.Style
}

// NewStyles derives the styles for w. Color is used only when w is a
// terminal that supports it.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Progress: r.NewStyle().Foreground(lipgloss.Color("245")),
		Meta:     r.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		Error:    r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Status:   r.NewStyle().Foreground(lipgloss.Color("42")),
		Label:    r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		Prompt:   r.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
	}
}
