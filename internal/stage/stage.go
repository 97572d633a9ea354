package stage

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Info describes a stage's identity.
type Info struct {
	ID    string
	Title string
	Kind  string
	// StartsComplete marks stages that need no interaction (prologue,
	// epilogue). Their gate is open from the first render.
	StartsComplete bool
}

// Validate ensures the info block is well-formed.
func (i Info) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("stage: id is required")
	}
	if i.Title == "" {
		return fmt.Errorf("stage: title is required for %s", i.ID)
	}
	if i.Kind == "" {
		return fmt.Errorf("stage: kind is required for %s", i.ID)
	}
	return nil
}

// Widget is the live structure a stage renders into the presentation area.
// It handles its own input through Update, the same way a Bubble Tea model
// does, and is thrown away as soon as the user leaves the stage.
type Widget interface {
	Update(msg tea.Msg) (Widget, tea.Cmd)
	View() string
}

// Stage is implemented by every unit of the journey.
type Stage interface {
	Info() Info
	// Render returns a fresh structure on every call. Implementations must
	// never hand out a structure that was rendered before.
	Render() Widget
}

// Binder is implemented by stages that wire interaction after their
// structure is attached. Setup runs exactly once per rendered structure.
type Binder interface {
	Setup(w Widget, b Binding) (Widget, tea.Cmd)
}

// Gated is implemented by stages whose gate is more than their own
// completion flag.
type Gated interface {
	Gate(completed bool) bool
}

// Base provides common plumbing for stages (identity only).
type Base struct {
	info Info
}

// NewBase seeds the helper with stage info.
func NewBase(info Info) Base {
	return Base{info: info}
}

// Info implements Stage.Info.
func (b Base) Info() Info {
	return b.info
}

// InfoFromSpec copies the identity fields of a spec.
func InfoFromSpec(spec Spec) Info {
	return Info{
		ID:             spec.ID,
		Title:          spec.Title,
		Kind:           spec.Kind,
		StartsComplete: spec.StartsComplete,
	}
}
