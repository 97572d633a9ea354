package stage

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestRegistryRegisterKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"prologue", "oral", "cave"} {
		reg.MustRegister(newStub(id))
	}
	if reg.Count() != 3 {
		t.Fatalf("count = %d, want 3", reg.Count())
	}
	for idx, want := range []string{"prologue", "oral", "cave"} {
		s, err := reg.Get(idx)
		if err != nil {
			t.Fatalf("get %d: %v", idx, err)
		}
		if got := s.Info().ID; got != want {
			t.Fatalf("stage %d = %s, want %s", idx, got, want)
		}
		if pos, ok := reg.IndexOf(want); !ok || pos != idx {
			t.Fatalf("IndexOf(%s) = %d,%v want %d", want, pos, ok, idx)
		}
	}
}

func TestRegistryRejectsDuplicatesAndInvalidInfo(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newStub("oral"))
	if err := reg.Register(newStub("oral")); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := reg.Register(&stubStage{info: Info{ID: "untitled", Kind: "stub"}}); err == nil {
		t.Fatalf("expected missing title to be rejected")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil stage to be rejected")
	}
}

func TestRegistryFreezeBlocksRegistration(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newStub("prologue"))
	reg.Freeze()
	if !reg.Frozen() {
		t.Fatalf("registry should report frozen")
	}
	if err := reg.Register(newStub("late")); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if reg.Count() != 1 {
		t.Fatalf("frozen registry grew to %d", reg.Count())
	}
}

func TestRegistryGetOutOfRange(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(newStub("prologue"))
	for _, idx := range []int{-1, 1, 99} {
		if _, err := reg.Get(idx); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Get(%d) error = %v, want ErrOutOfRange", idx, err)
		}
	}
}

func TestKindsResolveValidatesAndWrapsErrors(t *testing.T) {
	kinds := NewKinds()
	kinds.MustRegister("stub", func(spec Spec) (Stage, error) {
		if spec.Params.Bool("broken", false) {
			return nil, errors.New("boom")
		}
		return &stubStage{info: InfoFromSpec(spec)}, nil
	})
	if err := kinds.Register("stub", func(Spec) (Stage, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate kind to be rejected")
	}
	s, err := kinds.Resolve(Spec{ID: "oral", Title: "Oral", Kind: "stub"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Info().Kind != "stub" {
		t.Fatalf("kind = %s", s.Info().Kind)
	}
	if _, err := kinds.Resolve(Spec{ID: "x", Title: "X", Kind: "missing"}); err == nil || !strings.Contains(err.Error(), "unknown kind") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
	if _, err := kinds.Resolve(Spec{ID: "x", Title: "X", Kind: "stub", Params: Params{"broken": true}}); err == nil || !strings.Contains(err.Error(), "stage x: boom") {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}
	if _, err := kinds.Resolve(Spec{ID: "x", Kind: "stub"}); err == nil {
		t.Fatalf("expected info validation error")
	}
	if names := kinds.Names(); len(names) != 1 || names[0] != "stub" {
		t.Fatalf("names = %v", names)
	}
}

type stubStage struct {
	info Info
}

func newStub(id string) *stubStage {
	return &stubStage{info: Info{ID: id, Title: strings.ToUpper(id), Kind: "stub"}}
}

func (s *stubStage) Info() Info { return s.info }

func (s *stubStage) Render() Widget { return stubWidget{} }

type stubWidget struct{}

func (w stubWidget) Update(tea.Msg) (Widget, tea.Cmd) { return w, nil }

func (w stubWidget) View() string { return "" }
