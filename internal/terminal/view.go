// Package terminal renders a stream session to a terminal.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/xiaot623/scholar/internal/stream"
)

// clearLine returns the cursor to column zero and erases the line.
const clearLine = "\r\x1b[2K"

// Options configure a View.
type Options struct {
	// Width is the word wrap width of rendered answers.
	Width int
	// Style is a glamour style name: auto, dark, light, notty or ascii.
	Style string
	// Plain prints every progress update on its own line instead of
	// rewriting a single line. Use it when the output is not a terminal.
	Plain bool
}

// View implements stream.View on an io.Writer.
type View struct {
	mu       sync.Mutex
	out      io.Writer
	opts     Options
	styles   Styles
	markdown *markdownRenderer
	visible  bool
}

var _ stream.View = (*View)(nil)

// New creates a view writing to out.
func New(out io.Writer, opts Options) (*View, error) {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	md, err := newMarkdownRenderer(opts.Width, opts.Style)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	return &View{
		out:      out,
		opts:     opts,
		styles:   NewStyles(out),
		markdown: md,
	}, nil
}

// ShowProgress draws the progress line.
func (v *View) ShowProgress(p stream.Progress) {
	v.mu.Lock()
	defer v.mu.Unlock()

	line := v.styles.Progress.Render(progressLine(p))
	if v.opts.Plain {
		fmt.Fprintln(v.out, line)
	} else {
		fmt.Fprint(v.out, clearLine+line)
	}
	v.visible = true
}

// HideProgress erases the progress line.
func (v *View) HideProgress() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hide()
}

// RenderResponse prints the answer as markdown followed by its metadata.
func (v *View) RenderResponse(text string, meta []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hide()

	fmt.Fprintln(v.out, v.markdown.Render(text))
	for _, line := range meta {
		fmt.Fprintln(v.out, v.styles.Meta.Render(line))
	}
}

// RenderError prints message with error styling.
func (v *View) RenderError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hide()
	fmt.Fprintln(v.out, v.styles.Error.Render("✗ "+message))
}

// ShowStatus prints a status line.
func (v *View) ShowStatus(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hide()
	fmt.Fprintln(v.out, v.styles.Status.Render("✓ "+message))
}

// Labeled prints "label text" with the label highlighted. The watch command
// uses it for mirrored frames.
func (v *View) Labeled(label, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hide()
	fmt.Fprintln(v.out, v.styles.Label.Render("["+label+"]")+" "+text)
}

// Prompt returns the styled chat prompt.
func (v *View) Prompt() string {
	return v.styles.Prompt.Render("you> ")
}

func (v *View) hide() {
	if !v.visible {
		return
	}
	if !v.opts.Plain {
		fmt.Fprint(v.out, clearLine)
	}
	v.visible = false
}

func progressLine(p stream.Progress) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d/%d]", p.Step, p.TotalSteps)
	if p.Message != "" {
		b.WriteString(" ")
		b.WriteString(p.Message)
	}
	return b.String()
}
