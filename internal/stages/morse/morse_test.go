package morse

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"pgregory.net/rapid"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

type completer struct{ calls []int }

func (c *completer) MarkComplete(i int) { c.calls = append(c.calls, i) }

func tap(w *widget, keys string) {
	for _, r := range keys {
		if r == '\n' {
			w.Update(tea.KeyMsg{Type: tea.KeyEnter})
			continue
		}
		if r == ' ' {
			w.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		w.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestSendingTheWordCompletes(t *testing.T) {
	prose.UseStyle(prose.PlainStyle)
	s, err := New(stage.Spec{ID: "telegraph", Title: "Telegraph", Kind: Kind, Params: stage.Params{"word": "comet"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec := &completer{}
	scope, cancel := stage.NewScope(context.Background(), 1)
	defer cancel()
	sw, _ := s.(stage.Binder).Setup(s.Render(), stage.Binding{Index: 11, Completer: rec, Scope: scope})
	w := sw.(*widget)

	tap(w, "-.-. ---\n")
	if len(rec.calls) != 0 {
		t.Fatalf("partial word must not complete")
	}
	if !strings.Contains(w.View(), "could not read") {
		t.Fatalf("failure not shown: %q", w.View())
	}
	tap(w, "  -- . -\n")
	if len(rec.calls) != 1 || rec.calls[0] != 11 {
		t.Fatalf("calls = %v", rec.calls)
	}
	if !strings.Contains(w.View(), "(COMET)") {
		t.Fatalf("decoded text missing: %q", w.View())
	}
}

func TestBackspaceRemovesTap(t *testing.T) {
	s, _ := New(stage.Spec{ID: "a", Title: "A", Kind: Kind, Params: stage.Params{"word": "e"}})
	w := s.Render().(*widget)
	tap(w, ".-")
	w.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if w.tapped != "." {
		t.Fatalf("tapped = %q", w.tapped)
	}
}

func TestNewRejectsUnencodableWords(t *testing.T) {
	if _, err := New(stage.Spec{ID: "a", Title: "A", Kind: Kind, Params: stage.Params{"word": "c*met"}}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		word := rapid.StringMatching(`[A-Z0-9]{1,12}`).Draw(t, "word")
		code, err := Encode(word)
		if err != nil {
			t.Fatalf("encode %q: %v", word, err)
		}
		if got := Decode(code); got != word {
			t.Fatalf("decode(encode(%q)) = %q", word, got)
		}
	})
}
