package stage

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type pingMsg struct{ n int }

func TestScopeBindTagsMessages(t *testing.T) {
	scope, cancel := NewScope(context.Background(), 7)
	defer cancel()
	cmd := scope.Bind(func() tea.Msg { return pingMsg{n: 1} })
	msg, ok := cmd().(ScopedMsg)
	if !ok {
		t.Fatalf("expected ScopedMsg")
	}
	if msg.ScopeID != 7 {
		t.Fatalf("scope id = %d, want 7", msg.ScopeID)
	}
	if ping, ok := msg.Msg.(pingMsg); !ok || ping.n != 1 {
		t.Fatalf("inner msg = %#v", msg.Msg)
	}
}

func TestScopeBindUnwrapsBatches(t *testing.T) {
	scope, cancel := NewScope(context.Background(), 3)
	defer cancel()
	batch := tea.Batch(
		func() tea.Msg { return pingMsg{n: 1} },
		func() tea.Msg { return pingMsg{n: 2} },
	)
	out, ok := scope.Bind(batch)().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected batch to stay a batch")
	}
	if len(out) != 2 {
		t.Fatalf("batch len = %d, want 2", len(out))
	}
	for i, c := range out {
		scoped, ok := c().(ScopedMsg)
		if !ok || scoped.ScopeID != 3 {
			t.Fatalf("member %d not bound: %#v", i, scoped)
		}
	}
}

func TestScopeBindKeepsSequenceOrder(t *testing.T) {
	scope, cancel := NewScope(context.Background(), 4)
	defer cancel()
	seq := tea.Sequence(
		func() tea.Msg { return pingMsg{n: 1} },
		func() tea.Msg { return pingMsg{n: 2} },
		tea.WindowSize(),
	)
	msg := scope.Bind(seq)()
	if _, ok := msg.(ScopedMsg); ok {
		t.Fatalf("sequence must be unwrapped, not tagged")
	}
	cmds, ok := Sequenced(msg)
	if !ok || len(cmds) != 3 {
		t.Fatalf("expected a sequence of 3, got %#v", msg)
	}
	for i, c := range cmds[:2] {
		scoped, ok := c().(ScopedMsg)
		if !ok || scoped.ScopeID != 4 {
			t.Fatalf("member %d not bound", i)
		}
		if ping, ok := scoped.Msg.(pingMsg); !ok || ping.n != i+1 {
			t.Fatalf("member %d out of order: %#v", i, scoped.Msg)
		}
	}
	if _, ok := cmds[2]().(ScopedMsg); ok {
		t.Fatalf("window size requests belong to the runtime")
	}
}

func TestSequencedIgnoresOtherMessages(t *testing.T) {
	if _, ok := Sequenced(tea.BatchMsg{tea.Quit}); ok {
		t.Fatalf("batches are not sequences")
	}
	if _, ok := Sequenced(pingMsg{}); ok {
		t.Fatalf("plain messages are not sequences")
	}
	if _, ok := Sequenced(nil); ok {
		t.Fatalf("nil is not a sequence")
	}
}

func TestScopeBindDropsQuit(t *testing.T) {
	scope, cancel := NewScope(context.Background(), 1)
	defer cancel()
	if msg := scope.Bind(tea.Quit)(); msg != nil {
		t.Fatalf("stage quit should be dropped, got %#v", msg)
	}
	if scope.Bind(nil) != nil {
		t.Fatalf("binding nil cmd should stay nil")
	}
}

func TestScopeValidityFollowsCancel(t *testing.T) {
	var zero Scope
	if zero.Valid() {
		t.Fatalf("zero scope must be invalid")
	}
	scope, cancel := NewScope(context.Background(), 1)
	if !scope.Valid() {
		t.Fatalf("fresh scope must be valid")
	}
	cancel()
	if scope.Valid() {
		t.Fatalf("cancelled scope must be invalid")
	}
	select {
	case <-scope.Context().Done():
	default:
		t.Fatalf("context should be done after cancel")
	}
}

func TestScopeAfterDeliversTaggedMessage(t *testing.T) {
	scope, cancel := NewScope(context.Background(), 9)
	defer cancel()
	msg := scope.After(time.Millisecond, func() tea.Msg { return pingMsg{n: 5} })()
	scoped, ok := msg.(ScopedMsg)
	if !ok || scoped.ScopeID != 9 {
		t.Fatalf("expected scoped tick, got %#v", msg)
	}
}

func TestBindingCompleteHonoursScope(t *testing.T) {
	rec := &recordingCompleter{}
	scope, cancel := NewScope(context.Background(), 2)
	b := Binding{Index: 4, Completer: rec, Scope: scope}
	b.Complete()
	cancel()
	b.Complete()
	if len(rec.calls) != 1 || rec.calls[0] != 4 {
		t.Fatalf("calls = %v, want [4]", rec.calls)
	}
	msg, ok := b.Completed()().(CompletedMsg)
	if !ok || msg.Index != 4 || msg.ScopeID != 2 {
		t.Fatalf("completed msg = %#v", msg)
	}
}

type recordingCompleter struct {
	calls []int
}

func (r *recordingCompleter) MarkComplete(index int) {
	r.calls = append(r.calls, index)
}
