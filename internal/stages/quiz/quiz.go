// Package quiz implements multiple-choice stages on top of a huh form.
package quiz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for quiz stages.
const Kind = "quiz"

// Question is one multiple-choice prompt.
type Question struct {
	Prompt  string
	Options []string
	Answer  string
}

// Stage scores a set of answers against a pass mark.
type Stage struct {
	stage.Base
	content     string
	questions   []Question
	passMark    int
	failForward bool
	success     string
	failure     string
}

// New builds a quiz from its spec. Params: questions (list of prompt,
// options, answer), pass_mark (default all), fail_forward, success,
// failure.
func New(spec stage.Spec) (stage.Stage, error) {
	var questions []Question
	for i, raw := range spec.Params.List("questions") {
		q := Question{
			Prompt:  raw.String("prompt", ""),
			Options: raw.Strings("options"),
			Answer:  raw.String("answer", ""),
		}
		if q.Prompt == "" || len(q.Options) == 0 {
			return nil, fmt.Errorf("quiz: question %d needs a prompt and options", i)
		}
		if !contains(q.Options, q.Answer) {
			return nil, fmt.Errorf("quiz: question %d answer %q is not an option", i, q.Answer)
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("quiz: at least one question is required")
	}
	passMark := spec.Params.Int("pass_mark", len(questions))
	if passMark < 1 {
		passMark = 1
	}
	if passMark > len(questions) {
		passMark = len(questions)
	}
	return &Stage{
		Base:        stage.NewBase(stage.InfoFromSpec(spec)),
		content:     spec.Content,
		questions:   questions,
		passMark:    passMark,
		failForward: spec.Params.Bool("fail_forward", false),
		success:     spec.Params.String("success", "Correct."),
		failure:     spec.Params.String("failure", "Not quite."),
	}, nil
}

// Register installs the quiz kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Score counts the answers that match their question.
func (s *Stage) Score(answers []string) int {
	score := 0
	for i, q := range s.questions {
		if i < len(answers) && answers[i] == q.Answer {
			score++
		}
	}
	return score
}

// PassMark is the score needed to pass.
func (s *Stage) PassMark() int {
	return s.passMark
}

// Render returns a fresh form for the quiz.
func (s *Stage) Render() stage.Widget {
	w := &widget{stage: s}
	w.reset()
	return w
}

// Setup binds the completion mutator and starts the form.
func (s *Stage) Setup(sw stage.Widget, b stage.Binding) (stage.Widget, tea.Cmd) {
	w, ok := sw.(*widget)
	if !ok {
		return sw, nil
	}
	w.binding = b
	return w, w.form.Init()
}

type widget struct {
	stage    *Stage
	binding  stage.Binding
	form     *huh.Form
	answers  []string
	width    int
	resolved bool
	score    int
}

func (w *widget) reset() {
	w.answers = make([]string, len(w.stage.questions))
	fields := make([]huh.Field, len(w.stage.questions))
	for i, q := range w.stage.questions {
		fields[i] = huh.NewSelect[string]().
			Title(q.Prompt).
			Options(huh.NewOptions(q.Options...)...).
			Value(&w.answers[i])
	}
	w.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true)
	if w.width > 0 {
		w.form = w.form.WithWidth(w.width)
	}
	w.resolved = false
	w.score = 0
}

func (w *widget) passed() bool {
	return w.score >= w.stage.passMark
}

func (w *widget) evaluate() {
	w.resolved = true
	w.score = w.stage.Score(w.answers)
	if w.passed() || w.stage.failForward {
		w.binding.Complete()
	}
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = size.Width
		w.form = w.form.WithWidth(size.Width)
	}
	if w.resolved {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "r" && !w.passed() {
			w.reset()
			return w, w.form.Init()
		}
		return w, nil
	}
	model, cmd := w.form.Update(msg)
	if form, ok := model.(*huh.Form); ok {
		w.form = form
	}
	if w.form.State == huh.StateCompleted {
		w.evaluate()
	}
	return w, cmd
}

func (w *widget) View() string {
	intro := prose.Render(w.stage.content, w.width)
	if !w.resolved {
		return prose.Join(intro, w.form.View())
	}
	var lines []string
	for i, q := range w.stage.questions {
		mark := "✓"
		if w.answers[i] != q.Answer {
			mark = "✗"
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s", mark, q.Prompt, w.answers[i]))
	}
	summary := strings.Join(lines, "\n")
	if w.passed() {
		return prose.Join(intro, summary, prose.Success(w.stage.success))
	}
	wrong := len(w.stage.questions) - w.score
	outcome := prose.Failure(fmt.Sprintf("%s (%d wrong)", w.stage.failure, wrong))
	return prose.Join(intro, summary, outcome, prose.Hint("r: try again"))
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
