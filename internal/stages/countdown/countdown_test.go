package countdown

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

func start(t *testing.T, params stage.Params) (*widget, *completer) {
	t.Helper()
	prose.UseStyle(prose.PlainStyle)
	s, err := New(stage.Spec{ID: "alexandria", Title: "Alexandria", Kind: Kind, Params: params})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := &completer{}
	scope, cancel := stage.NewScope(context.Background(), 1)
	t.Cleanup(cancel)
	sw, cmd := s.(stage.Binder).Setup(s.Render(), stage.Binding{Index: 6, Completer: rec, Scope: scope})
	if cmd == nil {
		t.Fatalf("setup should arm the clock")
	}
	return sw.(*widget), rec
}

func typeWord(w *widget, word string) {
	w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(word)})
	w.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestWordsInTimeComplete(t *testing.T) {
	w, rec := start(t, stage.Params{"words": "sage, celestial", "limit": "3s"})
	typeWord(w, "sage")
	typeWord(w, "wrong")
	if !strings.Contains(w.View(), `"wrong" is not the word`) {
		t.Fatalf("miss not reported: %q", w.View())
	}
	typeWord(w, "Celestial")
	if len(rec.calls) != 1 || rec.calls[0] != 6 {
		t.Fatalf("calls = %v", rec.calls)
	}
	if _, cmd := w.Update(tickMsg{gen: 0}); cmd != nil {
		t.Fatalf("clock must stop once resolved")
	}
}

func TestTimeoutFailsAndStopsTicking(t *testing.T) {
	w, rec := start(t, stage.Params{"words": "sage", "limit": "2s"})
	if _, cmd := w.Update(tickMsg{gen: 0}); cmd == nil {
		t.Fatalf("clock should re-arm while running")
	}
	if _, cmd := w.Update(tickMsg{gen: 0}); cmd != nil {
		t.Fatalf("clock should stop at zero")
	}
	if !w.resolved || w.won {
		t.Fatalf("expected a timeout")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("timeout must not complete: %v", rec.calls)
	}
	typeWord(w, "sage")
	if len(rec.calls) != 0 {
		t.Fatalf("input after timeout must be ignored")
	}
}

func TestRetryIgnoresOldTicks(t *testing.T) {
	w, rec := start(t, stage.Params{"words": "sage", "limit": "1s"})
	w.Update(tickMsg{gen: 0})
	if !w.resolved {
		t.Fatalf("expected timeout")
	}
	if _, cmd := w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}); cmd == nil {
		t.Fatalf("retry should re-arm the clock")
	}
	w.Update(tickMsg{gen: 0})
	if w.resolved {
		t.Fatalf("tick from the previous attempt ended the retry")
	}
	typeWord(w, "sage")
	if len(rec.calls) != 1 {
		t.Fatalf("calls = %v", rec.calls)
	}
}

func TestFailForwardCompletesOnTimeout(t *testing.T) {
	w, rec := start(t, stage.Params{"words": "sage", "limit": "1s", "fail_forward": true})
	w.Update(tickMsg{gen: 0})
	if len(rec.calls) != 1 {
		t.Fatalf("fail-forward should complete on timeout, calls = %v", rec.calls)
	}
}

func TestNewRejectsEmptyWords(t *testing.T) {
	if _, err := New(stage.Spec{ID: "x", Title: "X", Kind: Kind}); err == nil {
		t.Fatalf("expected error")
	}
}
