package story

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages"
	"github.com/kingrea/relay/internal/theme"
)

func TestDefaultStoryShape(t *testing.T) {
	def, err := Default()
	if err != nil {
		t.Fatalf("default story: %v", err)
	}
	if len(def.Stages) != 24 {
		t.Fatalf("stages = %d, want 24", len(def.Stages))
	}
	first, last := def.Stages[0], def.Stages[len(def.Stages)-1]
	if !first.StartsComplete || !last.StartsComplete {
		t.Fatalf("prologue and epilogue must start complete")
	}
	for i, sd := range def.Stages[1 : len(def.Stages)-1] {
		if sd.StartsComplete {
			t.Fatalf("stage %d (%s) should be gated", i+1, sd.ID)
		}
	}
	cases := map[int]string{0: theme.Ancient, 9: theme.Ancient, 10: theme.Modern, 15: theme.Modern, 16: theme.Digital, 23: theme.Digital}
	for idx, want := range cases {
		b, ok := def.Themes.Select(idx)
		if !ok || b.ID != want {
			t.Fatalf("theme for %d = %s, want %s", idx, b.ID, want)
		}
	}
	if idx, ok := def.Index("oral"); !ok || idx != 1 {
		t.Fatalf("oral index = %d,%v", idx, ok)
	}
	questions := def.Stages[1].Params.List("questions")
	if len(questions) != 3 || questions[0].String("answer", "") != "76 years" {
		t.Fatalf("oral questions = %#v", questions)
	}
}

func TestParseYAMLNormalizes(t *testing.T) {
	payload := `
id: "  tiny  "
stages:
  - id: " one "
    title: One
    kind: " Passage "
  - id: two
    title: Two
    kind: quiz
`
	def, err := ParseYAML([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.ID != "tiny" || def.Title != "tiny" {
		t.Fatalf("id/title = %q/%q", def.ID, def.Title)
	}
	if def.Stages[0].ID != "one" || def.Stages[0].Kind != "passage" {
		t.Fatalf("stage not normalized: %+v", def.Stages[0])
	}
	if err := def.Themes.Validate(2); err != nil {
		t.Fatalf("default themes invalid: %v", err)
	}
}

func TestParseYAMLRejectsBrokenDefinitions(t *testing.T) {
	cases := map[string]string{
		"empty":     "   ",
		"no id":     "stages: [{id: a, title: A, kind: passage}]",
		"no stages": "id: x",
		"no kind":   "id: x\nstages: [{id: a, title: A}]",
		"duplicate": "id: x\nstages: [{id: a, title: A, kind: passage}, {id: a, title: B, kind: passage}]",
		"themes":    "id: x\nthemes: [{id: only, from: 0, to: 0}]\nstages: [{id: a, title: A, kind: passage}, {id: b, title: B, kind: passage}]",
		"syntax":    "id: [",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(payload)); err == nil || !strings.HasPrefix(err.Error(), "story") {
				t.Fatalf("expected story error, got %v", err)
			}
		})
	}
}

func TestLoadFileWrapsPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("id: x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected path in error, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("id: g\nstages: [{id: a, title: A, kind: passage}]"), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := Load(good)
	if err != nil || def.ID != "g" {
		t.Fatalf("load good = %+v, %v", def, err)
	}
	if def, err := Load(""); err != nil || len(def.Stages) != 24 {
		t.Fatalf("empty path should load the built-in story: %v", err)
	}
}

func TestDefaultStoryBuildsWithBuiltinKinds(t *testing.T) {
	def, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	reg, _, err := Build(def, stages.Builtins())
	if err != nil {
		t.Fatalf("built-in journey must build with the real kinds: %v", err)
	}
	if reg.Count() != 24 {
		t.Fatalf("count = %d", reg.Count())
	}
	idx, _ := def.Index("wartime")
	commands, ok := def.Stages[idx].Params["commands"].(stage.Params)
	if !ok {
		t.Fatalf("nested params decode as %T", def.Stages[idx].Params["commands"])
	}
	if len(def.Stages[idx].Params.Map("commands")) != len(commands) {
		t.Fatalf("commands = %v", def.Stages[idx].Params.Map("commands"))
	}
}

func TestBuildRegistersInOrderAndFreezes(t *testing.T) {
	def, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	kinds := stage.NewKinds()
	for _, kind := range []string{"passage", "quiz", "sequence", "countdown", "terminal", "chat", "transcribe", "morse", "search"} {
		kinds.MustRegister(kind, func(spec stage.Spec) (stage.Stage, error) {
			return stubStage{info: stage.InfoFromSpec(spec)}, nil
		})
	}
	reg, buckets, err := Build(def, kinds)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !reg.Frozen() {
		t.Fatalf("bootstrap must freeze the registry")
	}
	if reg.Count() != len(def.Stages) {
		t.Fatalf("count = %d", reg.Count())
	}
	for i, sd := range def.Stages {
		s, err := reg.Get(i)
		if err != nil || s.Info().ID != sd.ID {
			t.Fatalf("stage %d = %v, %v", i, s, err)
		}
	}
	if err := buckets.Validate(reg.Count()); err != nil {
		t.Fatalf("buckets: %v", err)
	}
	if err := reg.Register(stubStage{info: stage.Info{ID: "late", Title: "Late", Kind: "passage"}}); !errors.Is(err, stage.ErrFrozen) {
		t.Fatalf("expected frozen registry, got %v", err)
	}
}

func TestBuildReportsUnknownKinds(t *testing.T) {
	def := Definition{ID: "x", Stages: []StageDef{{ID: "a", Title: "A", Kind: "hologram"}}}
	if _, _, err := Build(def, stage.NewKinds()); err == nil || !strings.Contains(err.Error(), "stage[0]") {
		t.Fatalf("expected positional error, got %v", err)
	}
	if _, _, err := Build(def, nil); err == nil {
		t.Fatalf("expected missing catalogue error")
	}
}

type stubStage struct {
	info stage.Info
}

func (s stubStage) Info() stage.Info { return s.info }

func (s stubStage) Render() stage.Widget { return stubWidget{} }

type stubWidget struct{}

func (w stubWidget) Update(tea.Msg) (stage.Widget, tea.Cmd) { return w, nil }

func (w stubWidget) View() string { return "" }
