package stage

import (
	"context"
	"reflect"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ScopedMsg tags a message with the scope that produced it. The engine only
// delivers the inner message while that scope is still the current one.
type ScopedMsg struct {
	ScopeID uint64
	Msg     tea.Msg
}

// Scope is the cancellation token of one rendered structure. The engine
// cancels it on every stage transition, so timers and commands started by
// an abandoned stage can no longer reach the engine.
type Scope struct {
	id  uint64
	ctx context.Context
}

// NewScope derives a scope from parent. The returned cancel func invalidates
// it.
func NewScope(parent context.Context, id uint64) (Scope, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return Scope{id: id, ctx: ctx}, cancel
}

// ID identifies the scope.
func (s Scope) ID() uint64 {
	return s.id
}

// Valid reports whether the scope has not been cancelled yet.
func (s Scope) Valid() bool {
	return s.ctx != nil && s.ctx.Err() == nil
}

// Context exposes the scope for work running off the event loop.
func (s Scope) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

var (
	cmdType           = reflect.TypeOf((*tea.Cmd)(nil)).Elem()
	windowSizeRequest = reflect.TypeOf(tea.WindowSize()())
)

// Sequenced unpacks the message produced by tea.Sequence. Its type is
// unexported, so it is recognised by shape: a slice of commands that is not
// a BatchMsg.
func Sequenced(msg tea.Msg) ([]tea.Cmd, bool) {
	if msg == nil {
		return nil, false
	}
	if _, ok := msg.(tea.BatchMsg); ok {
		return nil, false
	}
	v := reflect.ValueOf(msg)
	if v.Kind() != reflect.Slice || v.Type().Elem() != cmdType {
		return nil, false
	}
	cmds := make([]tea.Cmd, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if c, _ := v.Index(i).Interface().(tea.Cmd); c != nil {
			cmds = append(cmds, c)
		}
	}
	return cmds, true
}

// Bind wraps cmd so that every message it produces is tagged with the scope.
// Batches and sequences are unwrapped and each member bound individually,
// keeping sequence order. Window size requests pass through untagged so the
// runtime can answer them. Quit requests are dropped: stages never end the
// program.
func (s Scope) Bind(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		switch m := msg.(type) {
		case nil:
			return nil
		case tea.QuitMsg:
			return nil
		case ScopedMsg:
			return m
		case tea.BatchMsg:
			bound := make(tea.BatchMsg, 0, len(m))
			for _, c := range m {
				if c != nil {
					bound = append(bound, s.Bind(c))
				}
			}
			return bound
		}
		if cmds, ok := Sequenced(msg); ok {
			bound := make([]tea.Cmd, 0, len(cmds))
			for _, c := range cmds {
				bound = append(bound, s.Bind(c))
			}
			seq := tea.Sequence(bound...)
			if seq == nil {
				return nil
			}
			return seq()
		}
		if reflect.TypeOf(msg) == windowSizeRequest {
			return msg
		}
		return ScopedMsg{ScopeID: s.id, Msg: msg}
	}
}

// After delivers fn's message once d has elapsed, provided the scope is
// still current by then. Repeating timers re-arm by calling After again
// from Update, which stops automatically when the stage is left.
func (s Scope) After(d time.Duration, fn func() tea.Msg) tea.Cmd {
	return s.Bind(tea.Tick(d, func(time.Time) tea.Msg {
		return fn()
	}))
}
