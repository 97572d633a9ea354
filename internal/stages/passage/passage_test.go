package passage

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

type completer struct{ calls []int }

func (c *completer) MarkComplete(i int) { c.calls = append(c.calls, i) }

func TestConfirmPassageCompletesOnEnter(t *testing.T) {
	prose.UseStyle(prose.PlainStyle)
	s, err := New(stage.Spec{ID: "papyrus", Title: "Papyrus", Kind: Kind, Content: "the scroll", Params: stage.Params{"confirm": true, "success": "done reading"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	gated := s.(stage.Gated)
	if gated.Gate(false) {
		t.Fatalf("confirm passage should be closed before reading")
	}
	rec := &completer{}
	scope, cancel := stage.NewScope(context.Background(), 1)
	defer cancel()
	w, _ := s.(stage.Binder).Setup(s.Render(), stage.Binding{Index: 4, Completer: rec, Scope: scope})
	if !strings.Contains(w.View(), "enter: finish reading") {
		t.Fatalf("missing hint: %q", w.View())
	}
	w, _ = w.Update(tea.KeyMsg{Type: tea.KeyEnter})
	w, _ = w.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(rec.calls) != 1 || rec.calls[0] != 4 {
		t.Fatalf("completion calls = %v", rec.calls)
	}
	if !strings.Contains(w.View(), "done reading") {
		t.Fatalf("missing success line: %q", w.View())
	}
}

func TestPlainPassageIsAlwaysOpen(t *testing.T) {
	s, _ := New(stage.Spec{ID: "prologue", Title: "Prologue", Kind: Kind, Content: "hello"})
	if !s.(stage.Gated).Gate(false) {
		t.Fatalf("plain passage should be open")
	}
	if s.Render() == s.Render() {
		t.Fatalf("render must return a fresh structure")
	}
}
