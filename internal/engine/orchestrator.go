package engine

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/theme"
)

// Journal receives the orchestrator's transition log. *logbook.Logbook
// satisfies it.
type Journal interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type discardJournal struct{}

func (discardJournal) Debug(string, ...any) {}
func (discardJournal) Info(string, ...any)  {}
func (discardJournal) Warn(string, ...any)  {}

// Orchestrator is the single context object holding the registry, the
// completion tracker, the current index and the live structure. It must
// only be driven from the Bubble Tea event loop.
type Orchestrator struct {
	ctx      context.Context
	registry *stage.Registry
	tracker  *Tracker
	buckets  theme.Buckets
	journal  Journal
	clock    func() time.Time
	session  string

	current int
	widget  stage.Widget
	scope   stage.Scope
	cancel  context.CancelFunc
	scopes  uint64
}

// Option customizes the orchestrator instance.
type Option func(*Orchestrator)

// WithBuckets overrides the theme buckets (default theme.Default(N)).
func WithBuckets(buckets theme.Buckets) Option {
	return func(o *Orchestrator) {
		if len(buckets) > 0 {
			o.buckets = buckets.Clone()
		}
	}
}

// WithJournal routes transition logging to journal.
func WithJournal(journal Journal) Option {
	return func(o *Orchestrator) {
		if journal != nil {
			o.journal = journal
		}
	}
}

// WithContext parents every stage scope on ctx.
func WithContext(ctx context.Context) Option {
	return func(o *Orchestrator) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSession labels snapshots with a session id.
func WithSession(id string) Option {
	return func(o *Orchestrator) {
		o.session = id
	}
}

// New freezes the registry and wires an orchestrator around it.
func New(registry *stage.Registry, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("engine: stage registry is required")
	}
	if registry.Count() == 0 {
		return nil, fmt.Errorf("engine: registry has no stages")
	}
	registry.Freeze()
	o := &Orchestrator{
		ctx:      context.Background(),
		registry: registry,
		tracker:  NewTracker(registry.Infos()),
		journal:  discardJournal{},
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if len(o.buckets) == 0 {
		o.buckets = theme.Default(registry.Count())
	}
	if err := o.buckets.Validate(registry.Count()); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return o, nil
}

// Start renders the first stage.
func (o *Orchestrator) Start() tea.Cmd {
	cmd, err := o.Render(0)
	if err != nil {
		o.journal.Warn("start: %v", err)
		return nil
	}
	return cmd
}

// Close invalidates the live scope.
func (o *Orchestrator) Close() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.widget = nil
}

// Current returns the displayed stage index.
func (o *Orchestrator) Current() int {
	return o.current
}

// Count returns the number of stages.
func (o *Orchestrator) Count() int {
	return o.registry.Count()
}

// Scope returns the scope of the live structure.
func (o *Orchestrator) Scope() stage.Scope {
	return o.scope
}

// GoTo displays the stage at index. Indices outside [0, N) are ignored.
func (o *Orchestrator) GoTo(index int) tea.Cmd {
	if index < 0 || index >= o.registry.Count() {
		return nil
	}
	cmd, err := o.Render(index)
	if err != nil {
		o.journal.Warn("goto %d: %v", index, err)
		return nil
	}
	return cmd
}

// Advance moves forward one stage once the current gate is open.
func (o *Orchestrator) Advance() tea.Cmd {
	if !o.IsComplete(o.current) {
		return nil
	}
	if o.current+1 >= o.registry.Count() {
		return nil
	}
	return o.GoTo(o.current + 1)
}

// Retreat moves back one stage. It is never gated.
func (o *Orchestrator) Retreat() tea.Cmd {
	if o.current <= 0 {
		return nil
	}
	return o.GoTo(o.current - 1)
}

// MarkComplete is the completion mutator. Calls for any stage other than
// the displayed one are ignored.
func (o *Orchestrator) MarkComplete(index int) {
	if index != o.current {
		o.journal.Debug("ignored completion for stage %d while %d is displayed", index, o.current)
		return
	}
	if o.tracker.Set(index) {
		info := o.info(index)
		o.journal.Info("completed %d/%d %s", index+1, o.registry.Count(), info.ID)
	}
}

// IsComplete evaluates the gate of the stage at index.
func (o *Orchestrator) IsComplete(index int) bool {
	s, err := o.registry.Get(index)
	if err != nil {
		return false
	}
	completed := o.tracker.Completed(index)
	if gated, ok := s.(stage.Gated); ok {
		return gated.Gate(completed)
	}
	return completed
}

// Completed reads the raw completion flag at index.
func (o *Orchestrator) Completed(index int) bool {
	return o.tracker.Completed(index)
}

// Render replaces the live structure with a fresh one for the stage at
// index. The previous scope is cancelled before anything else happens, so
// nothing the old structure scheduled can reach the engine again.
func (o *Orchestrator) Render(index int) (tea.Cmd, error) {
	s, err := o.registry.Get(index)
	if err != nil {
		return nil, err
	}
	if o.cancel != nil {
		o.cancel()
	}
	o.widget = nil
	o.scopes++
	scope, cancel := stage.NewScope(o.ctx, o.scopes)
	o.scope, o.cancel = scope, cancel
	o.current = index

	widget := s.Render()
	var cmd tea.Cmd
	if binder, ok := s.(stage.Binder); ok && widget != nil {
		widget, cmd = binder.Setup(widget, stage.Binding{
			Index:     index,
			Completer: o,
			Scope:     scope,
		})
	}
	o.widget = widget
	info := s.Info()
	o.journal.Info("entered %d/%d %s", index+1, o.registry.Count(), info.ID)
	return scope.Bind(cmd), nil
}

// Update routes msg to the live structure. Scoped messages from any scope
// other than the current one are dropped.
func (o *Orchestrator) Update(msg tea.Msg) tea.Cmd {
	if scoped, ok := msg.(stage.ScopedMsg); ok {
		if scoped.ScopeID != o.scope.ID() || !o.scope.Valid() {
			o.journal.Debug("dropped message from scope %d (current %d)", scoped.ScopeID, o.scope.ID())
			return nil
		}
		msg = scoped.Msg
	}
	if done, ok := msg.(stage.CompletedMsg); ok {
		if done.ScopeID != o.scope.ID() {
			o.journal.Debug("dropped completion for stage %d from scope %d", done.Index, done.ScopeID)
			return nil
		}
		o.MarkComplete(done.Index)
		return nil
	}
	if o.widget == nil {
		return nil
	}
	widget, cmd := o.widget.Update(msg)
	o.widget = widget
	return o.scope.Bind(cmd)
}

// View renders the live structure.
func (o *Orchestrator) View() string {
	if o.widget == nil {
		return ""
	}
	return o.widget.View()
}

func (o *Orchestrator) info(index int) stage.Info {
	s, err := o.registry.Get(index)
	if err != nil {
		return stage.Info{}
	}
	return s.Info()
}
