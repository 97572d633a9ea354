// Package sequence implements stages where marked points must be pressed in
// a fixed order.
package sequence

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for sequence stages.
const Kind = "sequence"

// Stage checks the order in which points are pressed.
type Stage struct {
	stage.Base
	content     string
	points      []string
	order       []string
	failForward bool
	success     string
	failure     string
}

// New builds a sequence stage. Params: points (display order), order
// (expected order, defaults to points), fail_forward, success, failure.
func New(spec stage.Spec) (stage.Stage, error) {
	points := spec.Params.Strings("points")
	if len(points) < 2 {
		return nil, fmt.Errorf("sequence: at least two points are required")
	}
	if len(points) > 9 {
		return nil, fmt.Errorf("sequence: at most nine points are supported")
	}
	order := spec.Params.Strings("order")
	if len(order) == 0 {
		order = append([]string(nil), points...)
	}
	if len(order) != len(points) {
		return nil, fmt.Errorf("sequence: order has %d entries for %d points", len(order), len(points))
	}
	seen := map[string]bool{}
	for _, p := range points {
		if seen[p] {
			return nil, fmt.Errorf("sequence: duplicate point %q", p)
		}
		seen[p] = true
	}
	for _, o := range order {
		if !seen[o] {
			return nil, fmt.Errorf("sequence: order names unknown point %q", o)
		}
	}
	return &Stage{
		Base:        stage.NewBase(stage.InfoFromSpec(spec)),
		content:     spec.Content,
		points:      points,
		order:       order,
		failForward: spec.Params.Bool("fail_forward", false),
		success:     spec.Params.String("success", "Correct order."),
		failure:     spec.Params.String("failure", "Wrong order."),
	}, nil
}

// Register installs the sequence kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Correct reports whether pressed matches the expected order.
func (s *Stage) Correct(pressed []string) bool {
	if len(pressed) != len(s.order) {
		return false
	}
	for i := range pressed {
		if pressed[i] != s.order[i] {
			return false
		}
	}
	return true
}

// Render returns a fresh, unpressed board.
func (s *Stage) Render() stage.Widget {
	return &widget{stage: s}
}

// Setup binds the completion mutator.
func (s *Stage) Setup(sw stage.Widget, b stage.Binding) (stage.Widget, tea.Cmd) {
	w, ok := sw.(*widget)
	if !ok {
		return sw, nil
	}
	w.binding = b
	return w, nil
}

type widget struct {
	stage    *Stage
	binding  stage.Binding
	width    int
	cursor   int
	pressed  []string
	resolved bool
	correct  bool
}

func (w *widget) reset() {
	w.pressed = nil
	w.resolved = false
	w.correct = false
}

func (w *widget) isPressed(label string) int {
	for i, p := range w.pressed {
		if p == label {
			return i + 1
		}
	}
	return 0
}

func (w *widget) press(index int) {
	if w.resolved || index < 0 || index >= len(w.stage.points) {
		return
	}
	label := w.stage.points[index]
	if w.isPressed(label) > 0 {
		return
	}
	w.pressed = append(w.pressed, label)
	if len(w.pressed) < len(w.stage.points) {
		return
	}
	w.resolved = true
	w.correct = w.stage.Correct(w.pressed)
	if w.correct || w.stage.failForward {
		w.binding.Complete()
	}
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "up", "k":
			if w.cursor > 0 {
				w.cursor--
			}
		case "down", "j":
			if w.cursor < len(w.stage.points)-1 {
				w.cursor++
			}
		case "enter", " ":
			w.press(w.cursor)
		case "r":
			if !w.correct {
				w.reset()
			}
		default:
			if n, err := strconv.Atoi(key); err == nil {
				w.press(n - 1)
			}
		}
	}
	return w, nil
}

func (w *widget) View() string {
	var rows []string
	for i, label := range w.stage.points {
		mark := "○"
		if n := w.isPressed(label); n > 0 {
			mark = strconv.Itoa(n)
		}
		row := fmt.Sprintf("[%d] %s %s", i+1, mark, label)
		if i == w.cursor && !w.resolved {
			row = prose.Focus("› " + row)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	board := strings.Join(rows, "\n")
	trail := ""
	if len(w.pressed) > 0 {
		trail = strings.Join(w.pressed, " → ")
	}
	var status string
	switch {
	case w.resolved && w.correct:
		status = prose.Success(w.stage.success)
	case w.resolved:
		status = prose.Failure(w.stage.failure)
		if !w.stage.failForward {
			status = prose.Join(status, prose.Hint("r: start over"))
		}
	default:
		status = prose.Hint("1-9 or ↑/↓ + enter: press a point · r: start over")
	}
	return prose.Join(prose.Render(w.stage.content, w.width), board, trail, status)
}
