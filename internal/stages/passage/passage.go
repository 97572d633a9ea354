// Package passage implements reading stages: static content that is either
// open from the start or unlocked by confirming it was read.
package passage

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for passage stages.
const Kind = "passage"

// Stage shows markdown content.
type Stage struct {
	stage.Base
	content string
	confirm bool
	success string
}

// New builds a passage from its spec. Params: confirm (bool), success.
func New(spec stage.Spec) (stage.Stage, error) {
	return &Stage{
		Base:    stage.NewBase(stage.InfoFromSpec(spec)),
		content: spec.Content,
		confirm: spec.Params.Bool("confirm", false),
		success: spec.Params.String("success", "Read."),
	}, nil
}

// Register installs the passage kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Gate opens immediately unless the passage asks for confirmation.
func (s *Stage) Gate(completed bool) bool {
	return completed || !s.confirm
}

// Render returns a fresh, unbound structure.
func (s *Stage) Render() stage.Widget {
	return &widget{stage: s}
}

// Setup binds the completion mutator.
func (s *Stage) Setup(w stage.Widget, b stage.Binding) (stage.Widget, tea.Cmd) {
	pw, ok := w.(*widget)
	if !ok {
		return w, nil
	}
	pw.binding = b
	pw.bound = true
	return pw, nil
}

type widget struct {
	stage   *Stage
	binding stage.Binding
	bound   bool
	width   int
	done    bool
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && w.stage.confirm && w.bound && !w.done {
			w.done = true
			w.binding.Complete()
		}
	}
	return w, nil
}

func (w *widget) View() string {
	body := prose.Render(w.stage.content, w.width)
	if !w.stage.confirm {
		return body
	}
	if w.done {
		return prose.Join(body, prose.Success(w.stage.success))
	}
	return prose.Join(body, prose.Hint("enter: finish reading"))
}
