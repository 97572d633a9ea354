// Package countdown implements timed stages: type the target words before
// the clock runs out.
package countdown

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for countdown stages.
const Kind = "countdown"

// Stage races a word list against a clock.
type Stage struct {
	stage.Base
	content     string
	words       []string
	limit       time.Duration
	tick        time.Duration
	failForward bool
	success     string
	failure     string
}

// New builds a countdown stage. Params: words, limit (default 30s), tick
// (default 1s), fail_forward, success, failure.
func New(spec stage.Spec) (stage.Stage, error) {
	words := spec.Params.Strings("words")
	if len(words) == 0 {
		return nil, fmt.Errorf("countdown: at least one word is required")
	}
	limit := spec.Params.Duration("limit", 30*time.Second)
	tick := spec.Params.Duration("tick", time.Second)
	if limit <= 0 || tick <= 0 {
		return nil, fmt.Errorf("countdown: limit and tick must be positive")
	}
	return &Stage{
		Base:        stage.NewBase(stage.InfoFromSpec(spec)),
		content:     spec.Content,
		words:       words,
		limit:       limit,
		tick:        tick,
		failForward: spec.Params.Bool("fail_forward", false),
		success:     spec.Params.String("success", "Made it in time."),
		failure:     spec.Params.String("failure", "Time is up."),
	}, nil
}

// Register installs the countdown kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Render returns a fresh, stopped countdown.
func (s *Stage) Render() stage.Widget {
	input := textinput.New()
	input.Prompt = "› "
	input.Placeholder = "type the next word and press enter"
	input.CharLimit = 64
	return &widget{
		stage:     s,
		input:     input,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
		remaining: s.limit,
	}
}

// Setup binds the stage and starts the clock.
func (s *Stage) Setup(sw stage.Widget, b stage.Binding) (stage.Widget, tea.Cmd) {
	w, ok := sw.(*widget)
	if !ok {
		return sw, nil
	}
	w.binding = b
	return w, tea.Batch(w.input.Focus(), w.arm())
}

// tickMsg carries the generation of the run that armed it, so a retry
// ignores ticks left over from the previous attempt.
type tickMsg struct{ gen int }

type widget struct {
	stage     *Stage
	binding   stage.Binding
	input     textinput.Model
	bar       progress.Model
	width     int
	gen       int
	remaining time.Duration
	next      int
	miss      string
	resolved  bool
	won       bool
}

func (w *widget) arm() tea.Cmd {
	gen := w.gen
	return w.binding.Scope.After(w.stage.tick, func() tea.Msg { return tickMsg{gen: gen} })
}

func (w *widget) resolve(won bool) {
	w.resolved = true
	w.won = won
	w.input.Blur()
	if won || w.stage.failForward {
		w.binding.Complete()
	}
}

func (w *widget) retry() tea.Cmd {
	w.gen++
	w.remaining = w.stage.limit
	w.next = 0
	w.miss = ""
	w.resolved = false
	w.won = false
	w.input.Reset()
	return tea.Batch(w.input.Focus(), w.arm())
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil
	case tickMsg:
		if msg.gen != w.gen || w.resolved {
			return w, nil
		}
		w.remaining -= w.stage.tick
		if w.remaining <= 0 {
			w.remaining = 0
			w.resolve(false)
			return w, nil
		}
		return w, w.arm()
	case tea.KeyMsg:
		if w.resolved {
			if msg.String() == "r" && !w.won {
				return w, w.retry()
			}
			return w, nil
		}
		if msg.Type == tea.KeyEnter {
			w.submit(w.input.Value())
			return w, nil
		}
	}
	if w.resolved {
		return w, nil
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

func (w *widget) submit(value string) {
	value = strings.TrimSpace(value)
	w.input.Reset()
	if value == "" {
		return
	}
	if !strings.EqualFold(value, w.stage.words[w.next]) {
		w.miss = value
		return
	}
	w.miss = ""
	w.next++
	if w.next == len(w.stage.words) {
		w.resolve(true)
	}
}

func (w *widget) View() string {
	intro := prose.Render(w.stage.content, w.width)
	var done []string
	for i, word := range w.stage.words {
		if i < w.next {
			done = append(done, "✓ "+word)
		} else if i == w.next && !w.resolved {
			done = append(done, prose.Focus("› "+word))
		} else {
			done = append(done, "· "+word)
		}
	}
	clock := fmt.Sprintf("%s %s", w.bar.ViewAs(w.fraction()), w.remaining.Round(time.Second))
	switch {
	case w.resolved && w.won:
		return prose.Join(intro, strings.Join(done, "\n"), prose.Success(w.stage.success))
	case w.resolved:
		tail := prose.Join(prose.Failure(w.stage.failure), prose.Hint("r: try again"))
		return prose.Join(intro, strings.Join(done, "\n"), tail)
	}
	miss := ""
	if w.miss != "" {
		miss = prose.Failure(fmt.Sprintf("%q is not the word you need", w.miss))
	}
	return prose.Join(intro, clock, strings.Join(done, "\n"), w.input.View(), miss)
}

func (w *widget) fraction() float64 {
	if w.stage.limit <= 0 {
		return 0
	}
	return float64(w.remaining) / float64(w.stage.limit)
}
