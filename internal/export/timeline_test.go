package export

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/kingrea/relay/internal/engine"
	"github.com/kingrea/relay/internal/theme"
)

func sampleState() engine.State {
	buckets := theme.Buckets{
		{ID: theme.Ancient, Label: "Ancient", From: 0, To: 2},
		{ID: theme.Modern, Label: "Modern", From: 3, To: 4},
	}
	ids := []string{"prologue", "oral", "cave", "printing", "epilogue"}
	stages := make([]engine.StageStatus, len(ids))
	for i, id := range ids {
		b, _ := buckets.Select(i)
		stages[i] = engine.StageStatus{Index: i, ID: id, Title: strings.ToUpper(id), Kind: "passage", Theme: b.ID}
	}
	stages[0].Completed = true
	stages[1].Completed = true
	stages[2].Current = true
	return engine.State{
		Session:   "abc123",
		Current:   2,
		Count:     len(ids),
		Done:      2,
		Theme:     buckets[0],
		Themes:    buckets,
		Stages:    stages,
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestSaveTimelineSVG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "timeline.svg")
	path, err := SaveTimeline(TimelineOptions{Path: out, Title: "Relay", State: sampleState()})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc any
	if err := xml.Unmarshal(content, &doc); err != nil {
		t.Fatalf("not valid XML: %v", err)
	}
	text := string(content)
	for _, want := range []string{"<svg", "Relay", "completed 2/5", "3 / 5 : CAVE", "Ancient", "Modern", `id="stage-printing"`, "●"} {
		if !strings.Contains(text, want) {
			t.Fatalf("svg missing %q", want)
		}
	}
}

func TestSaveTimelinePNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "timeline.png")
	if _, err := SaveTimeline(TimelineOptions{Path: out, State: sampleState()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	file, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	l := buildLayout(TimelineOptions{State: sampleState()})
	if b := img.Bounds(); b.Dx() != l.Width || b.Dy() != l.Height {
		t.Fatalf("bounds = %v, want %dx%d", b, l.Width, l.Height)
	}
}

func TestSaveTimelineFormats(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveTimeline(TimelineOptions{Path: filepath.Join(dir, "bare"), State: sampleState()})
	if err != nil || !strings.HasSuffix(path, ".svg") {
		t.Fatalf("extensionless path = %q, %v", path, err)
	}
	if _, err := SaveTimeline(TimelineOptions{Path: filepath.Join(dir, "x.gif"), Format: "gif", State: sampleState()}); err == nil {
		t.Fatalf("gif should be rejected")
	}
	if _, err := SaveTimeline(TimelineOptions{Path: filepath.Join(dir, "x.svg")}); err == nil {
		t.Fatalf("empty state should be rejected")
	}
	if _, err := SaveTimeline(TimelineOptions{Format: "svg", State: sampleState()}); err == nil {
		t.Fatalf("missing path should be rejected")
	}
}

func TestLayoutGroupsByTheme(t *testing.T) {
	l := buildLayout(TimelineOptions{State: sampleState()})
	if len(l.Bands) != 2 || l.Bands[0].Label != "Ancient" || l.Bands[1].Label != "Modern" {
		t.Fatalf("bands = %+v", l.Bands)
	}
	if len(l.Cards) != 5 {
		t.Fatalf("cards = %d", len(l.Cards))
	}
	if l.Cards[3].Y <= l.Cards[2].Y {
		t.Fatalf("second band should sit below the first")
	}
}

func TestWriteState(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteState(&buf, sampleState()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var decoded engine.State
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Current != 2 || decoded.Done != 2 || len(decoded.Stages) != 5 || decoded.Themes[1].ID != theme.Modern {
		t.Fatalf("decoded = %+v", decoded)
	}
	path := filepath.Join(t.TempDir(), "snap", "state.json")
	if err := SaveState(path, sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
}

type closeFailure struct {
	bytes.Buffer
	closed int
	err    error
}

func (c *closeFailure) Close() error {
	c.closed++
	return c.err
}

func TestWriteAndCloseReportsCloseError(t *testing.T) {
	sink := &closeFailure{err: errors.New("disk full")}
	err := writeAndClose(sink, func(w io.Writer) error { return WriteState(w, sampleState()) })
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("close error lost: %v", err)
	}
	if sink.closed != 1 || sink.Len() == 0 {
		t.Fatalf("closed %d times, wrote %d bytes", sink.closed, sink.Len())
	}

	sink = &closeFailure{err: errors.New("ignored")}
	boom := errors.New("encode failed")
	if err := writeAndClose(sink, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("write error should win, got %v", err)
	}
	if sink.closed != 1 {
		t.Fatalf("file must be closed after a failed write")
	}

	if err := writeAndClose(&closeFailure{}, func(io.Writer) error { return nil }); err != nil {
		t.Fatalf("clean close: %v", err)
	}
}

func TestMarkers(t *testing.T) {
	cases := []struct {
		st   engine.StageStatus
		want string
	}{
		{engine.StageStatus{}, "·"},
		{engine.StageStatus{Completed: true}, "◆"},
		{engine.StageStatus{Current: true}, "●"},
		{engine.StageStatus{Current: true, Completed: true}, "●◆"},
	}
	for _, tc := range cases {
		if got := marker(tc.st); got != tc.want {
			t.Fatalf("marker(%+v) = %q", tc.st, got)
		}
	}
}
