package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/kingrea/relay/internal/theme"
)

// Palette colours the chrome for one era.
type Palette struct {
	Accent lipgloss.Color
	Border lipgloss.Color
	Done   lipgloss.Color
	Muted  lipgloss.Color
}

var palettes = map[string]Palette{
	theme.Ancient: {Accent: "#D4A017", Border: "#8B5A2B", Done: "#C2B280", Muted: "#7A6A53"},
	theme.Modern:  {Accent: "#5B8DEF", Border: "#3D5A80", Done: "#98C1D9", Muted: "#6C7A89"},
	theme.Digital: {Accent: "#00E5C0", Border: "#00897B", Done: "#64FFDA", Muted: "#4F6F6A"},
}

var defaultPalette = Palette{Accent: "#FF6B6B", Border: "#444444", Done: "#7BD88F", Muted: "#888888"}

// PaletteFor returns the palette of a theme bucket.
func PaletteFor(bucket theme.Bucket) Palette {
	if p, ok := palettes[bucket.ID]; ok {
		return p
	}
	return defaultPalette
}

// Dot glyphs.
const (
	dotCurrent   = "●"
	dotCompleted = "◆"
	dotPending   = "·"
)

// truncate cuts s to maxWidth cells, adding suffix when it had to cut.
func truncate(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth-suffixWidth, "") + suffix
}

// spread places left and right on one line of width cells.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
