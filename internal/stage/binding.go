package stage

import tea "github.com/charmbracelet/bubbletea"

// Completer is the completion mutator handed to stages.
type Completer interface {
	MarkComplete(index int)
}

// CompletedMsg asks the engine to mark a stage complete from outside the
// Update loop. It is honoured only while its scope is still current.
type CompletedMsg struct {
	Index   int
	ScopeID uint64
}

// Binding is everything a stage receives from the engine.
type Binding struct {
	Index     int
	Completer Completer
	Scope     Scope
}

// Complete marks the bound stage complete. It must be called from the Update
// loop; it does nothing once the scope has been invalidated.
func (b Binding) Complete() {
	if b.Completer == nil || !b.Scope.Valid() {
		return
	}
	b.Completer.MarkComplete(b.Index)
}

// Completed returns a command that reports completion through the event
// loop. Use it when the decision is made inside a command.
func (b Binding) Completed() tea.Cmd {
	index, scope := b.Index, b.Scope.ID()
	return func() tea.Msg {
		return CompletedMsg{Index: index, ScopeID: scope}
	}
}
