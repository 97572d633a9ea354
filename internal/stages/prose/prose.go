// Package prose renders stage content and the small status lines every
// stage kind shares.
package prose

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	// AutoStyle picks a dark or light palette from the terminal.
	AutoStyle = "auto"
	// PlainStyle renders without colour, for pipes and tests.
	PlainStyle = "notty"

	defaultWidth = 72
)

var (
	mu        sync.Mutex
	style     = AutoStyle
	renderers = map[int]*glamour.TermRenderer{}
)

// UseStyle switches the glamour style for subsequent renders.
func UseStyle(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = AutoStyle
	}
	mu.Lock()
	defer mu.Unlock()
	if name != style {
		style = name
		renderers = map[int]*glamour.TermRenderer{}
	}
}

// Render turns markdown into terminal text wrapped at width. Rendering
// failures fall back to the raw markdown.
func Render(markdown string, width int) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	r, err := renderer(width)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.Trim(out, "\n")
}

func renderer(width int) (*glamour.TermRenderer, error) {
	mu.Lock()
	defer mu.Unlock()
	if r, ok := renderers[width]; ok {
		return r, nil
	}
	styleOpt := glamour.WithStandardStyle(style)
	if style == AutoStyle {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	renderers[width] = r
	return r, nil
}

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
)

// Success styles a positive outcome line.
func Success(text string) string {
	return successStyle.Render("✓ " + text)
}

// Failure styles a local, recoverable failure line.
func Failure(text string) string {
	return failureStyle.Render("✗ " + text)
}

// Hint styles key hints shown under a stage.
func Hint(text string) string {
	return hintStyle.Render(text)
}

// Focus highlights the selected item in a list.
func Focus(text string) string {
	return focusStyle.Render(text)
}

// Join stacks non-empty blocks separated by a blank line.
func Join(blocks ...string) string {
	parts := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if strings.TrimSpace(block) != "" {
			parts = append(parts, block)
		}
	}
	return strings.Join(parts, "\n\n")
}
