// Package export renders journey snapshots to files: a timeline image (SVG
// or PNG) and the raw state as JSON.
package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	json "github.com/goccy/go-json"
	"golang.org/x/image/font/basicfont"

	"github.com/kingrea/relay/internal/engine"
)

// TimelineOptions controls timeline export.
type TimelineOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive)
	Title  string
	State  engine.State
}

// SaveTimeline renders the journey as a strip of stage cards grouped by
// theme band.
func SaveTimeline(opts TimelineOptions) (string, error) {
	if len(opts.State.Stages) == 0 {
		return "", fmt.Errorf("export: no stages to render")
	}
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".png":
			format = "png"
		case ".svg":
			format = "svg"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", fmt.Errorf("export: unsupported format %q (want svg or png)", format)
	}
	if opts.Path == "" {
		return "", fmt.Errorf("export: output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return "", fmt.Errorf("export: create parent dir: %w", err)
	}

	layout := buildLayout(opts)
	var err error
	if format == "png" {
		err = renderPNG(opts.Path, layout)
	} else {
		err = renderSVG(opts.Path, layout)
	}
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return opts.Path, nil
}

// WriteState encodes the snapshot as indented JSON.
func WriteState(w io.Writer, state engine.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode state: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// SaveState writes the snapshot JSON to path.
func SaveState(path string, state engine.State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create parent dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return writeAndClose(file, func(w io.Writer) error { return WriteState(w, state) })
}

// writeAndClose runs write against wc and reports the close error too, since
// a failed close can lose buffered data of a freshly written file.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("export: close: %w", err)
	}
	return nil
}

// --- layout ------------------------------------------------------------------

const (
	cardW    = 120.0
	cardH    = 64.0
	gap      = 12.0
	padding  = 28.0
	header   = 96.0
	bandPad  = 10.0
	bandHead = 22.0
	perRow   = 8
)

type card struct {
	X, Y    float64
	Stage   engine.StageStatus
	Ordinal string
}

type band struct {
	X, Y, W, H float64
	Label      string
	Palette    palette
}

type layout struct {
	Width, Height int
	Title         string
	Summary       []string
	Cards         []card
	Bands         []band
}

func buildLayout(opts TimelineOptions) layout {
	state := opts.State
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Journey timeline"
	}
	summary := []string{fmt.Sprintf("completed %d/%d", state.Done, state.Count)}
	if cur, ok := state.CurrentStage(); ok {
		summary = append(summary, fmt.Sprintf("at %s", engine.Indicator(cur.Index, state.Count, cur.Title)))
	}
	if state.Session != "" {
		summary = append(summary, "session "+state.Session)
	}

	var (
		cards []card
		bands []band
		y     = padding + header
		width = padding*2 + perRow*cardW + (perRow-1)*gap
	)
	for _, group := range groupByTheme(state) {
		rows := (len(group.stages) + perRow - 1) / perRow
		h := bandHead + bandPad + float64(rows)*(cardH+gap) - gap + bandPad
		bands = append(bands, band{
			X: padding - bandPad, Y: y, W: width - 2*padding + 2*bandPad, H: h,
			Label: group.label, Palette: paletteFor(group.id),
		})
		for i, st := range group.stages {
			row, col := i/perRow, i%perRow
			cards = append(cards, card{
				X:       padding + float64(col)*(cardW+gap),
				Y:       y + bandHead + bandPad + float64(row)*(cardH+gap),
				Stage:   st,
				Ordinal: fmt.Sprintf("%d", st.Index+1),
			})
		}
		y += h + gap
	}
	return layout{
		Width:   int(width),
		Height:  int(y + padding),
		Title:   title,
		Summary: summary,
		Cards:   cards,
		Bands:   bands,
	}
}

type themeGroup struct {
	id     string
	label  string
	stages []engine.StageStatus
}

func groupByTheme(state engine.State) []themeGroup {
	var groups []themeGroup
	for _, st := range state.Stages {
		if n := len(groups); n > 0 && groups[n-1].id == st.Theme {
			groups[n-1].stages = append(groups[n-1].stages, st)
			continue
		}
		label := st.Theme
		for _, b := range state.Themes {
			if b.ID == st.Theme {
				label = b.Name()
			}
		}
		if label == "" {
			label = "stages"
		}
		groups = append(groups, themeGroup{id: st.Theme, label: label, stages: []engine.StageStatus{st}})
	}
	return groups
}

// --- rendering ---------------------------------------------------------------

type palette struct {
	band   color.RGBA
	accent color.RGBA
}

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorPending  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorDone     = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}

	palettes = map[string]palette{
		"ancient": {band: color.RGBA{0xf5, 0xeb, 0xd8, 0xff}, accent: color.RGBA{0xb0, 0x7d, 0x2c, 0xff}},
		"modern":  {band: color.RGBA{0xe3, 0xea, 0xf2, 0xff}, accent: color.RGBA{0x3d, 0x5a, 0x80, 0xff}},
		"digital": {band: color.RGBA{0xe0, 0xf7, 0xf4, 0xff}, accent: color.RGBA{0x00, 0x96, 0x88, 0xff}},
	}
	fallbackPalette = palette{band: color.RGBA{0xee, 0xee, 0xee, 0xff}, accent: color.RGBA{0x6b, 0x80, 0xbf, 0xff}}
)

func paletteFor(id string) palette {
	if p, ok := palettes[id]; ok {
		return p
	}
	return fallbackPalette
}

func cardFill(st engine.StageStatus) color.RGBA {
	if st.Completed {
		return colorDone
	}
	return colorPending
}

func renderPNG(path string, l layout) error {
	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(l.Width)-32, header-8, 10)
	dc.Fill()
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, 32, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	for i, line := range l.Summary {
		dc.DrawStringAnchored(line, 32, 60+float64(i)*16, 0, 0.5)
	}

	for _, b := range l.Bands {
		dc.SetColor(b.Palette.band)
		dc.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, 8)
		dc.Fill()
		dc.SetColor(b.Palette.accent)
		dc.DrawStringAnchored(b.Label, b.X+bandPad, b.Y+bandHead/2+4, 0, 0.5)
	}

	for _, c := range l.Cards {
		p := paletteFor(c.Stage.Theme)
		dc.SetColor(cardFill(c.Stage))
		dc.DrawRoundedRectangle(c.X, c.Y, cardW, cardH, 6)
		dc.Fill()
		if c.Stage.Current {
			dc.SetColor(p.accent)
			dc.SetLineWidth(3)
		} else {
			dc.SetColor(colorStroke)
			dc.SetLineWidth(1)
		}
		dc.DrawRoundedRectangle(c.X, c.Y, cardW, cardH, 6)
		dc.Stroke()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(c.Ordinal+" "+asciiMarker(c.Stage), c.X+8, c.Y+16, 0, 0.5)
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(truncate(c.Stage.ID, 15), c.X+8, c.Y+34, 0, 0.5)
		dc.DrawStringAnchored(truncate(c.Stage.Kind, 15), c.X+8, c.Y+50, 0, 0.5)
	}
	return dc.SavePNG(path)
}

func renderSVG(path string, l layout) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeAndClose(file, func(w io.Writer) error { return renderSVGToWriter(w, l) })
}

func renderSVGToWriter(w io.Writer, l layout) error {
	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, l.Width-32, int(header-8), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(32, 44, l.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, line := range l.Summary {
		canvas.Text(32, 64+i*16, line, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}

	for _, b := range l.Bands {
		canvas.Roundrect(int(b.X), int(b.Y), int(b.W), int(b.H), 8, 8, fmt.Sprintf("fill:%s", css(b.Palette.band)))
		canvas.Text(int(b.X+bandPad), int(b.Y+bandHead/2+6), b.Label,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(b.Palette.accent)))
	}

	for _, c := range l.Cards {
		x, y := int(c.X), int(c.Y)
		stroke, width := css(colorStroke), "1"
		if c.Stage.Current {
			stroke, width = css(paletteFor(c.Stage.Theme).accent), "3"
		}
		canvas.Gid("stage-" + c.Stage.ID)
		canvas.Roundrect(x, y, int(cardW), int(cardH), 6, 6,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%s", css(cardFill(c.Stage)), stroke, width))
		canvas.Text(x+8, y+18, c.Ordinal+" "+marker(c.Stage), fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
		canvas.Text(x+8, y+36, truncate(c.Stage.ID, 15), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
		canvas.Text(x+8, y+52, truncate(c.Stage.Kind, 15), fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
		canvas.Gend()
	}
	canvas.End()
	return nil
}

// marker mirrors the dots of the terminal chrome.
func marker(st engine.StageStatus) string {
	switch {
	case st.Current && st.Completed:
		return "●◆"
	case st.Current:
		return "●"
	case st.Completed:
		return "◆"
	default:
		return "·"
	}
}

// asciiMarker is marker for the bitmap font, which has no symbols.
func asciiMarker(st engine.StageStatus) string {
	switch {
	case st.Current && st.Completed:
		return "*+"
	case st.Current:
		return "*"
	case st.Completed:
		return "+"
	default:
		return "."
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
