// Package terminal implements a scripted shell. Each stage lists the
// commands it understands and the goal commands that must all run before
// the stage is complete.
package terminal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for terminal stages.
const Kind = "terminal"

const historyLines = 12

// Stage is a scripted shell session.
type Stage struct {
	stage.Base
	content  string
	prompt   string
	commands map[string]string
	goals    []string
	slow     map[string]bool
	delay    time.Duration
	success  string
}

// New builds a terminal stage. Params: commands (command -> output), goals,
// slow (commands whose output arrives after delay), delay, prompt, success.
func New(spec stage.Spec) (stage.Stage, error) {
	commands := spec.Params.Map("commands")
	if len(commands) == 0 {
		return nil, fmt.Errorf("terminal: at least one command is required")
	}
	goals := spec.Params.Strings("goals")
	if len(goals) == 0 {
		return nil, fmt.Errorf("terminal: at least one goal is required")
	}
	for _, goal := range goals {
		if _, ok := commands[goal]; !ok {
			return nil, fmt.Errorf("terminal: goal %q has no command", goal)
		}
	}
	slow := map[string]bool{}
	for _, name := range spec.Params.Strings("slow") {
		slow[name] = true
	}
	return &Stage{
		Base:     stage.NewBase(stage.InfoFromSpec(spec)),
		content:  spec.Content,
		prompt:   spec.Params.String("prompt", "$ "),
		commands: commands,
		goals:    goals,
		slow:     slow,
		delay:    spec.Params.Duration("delay", time.Second),
		success:  spec.Params.String("success", "All done."),
	}, nil
}

// Register installs the terminal kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Resolve maps an input line onto a known command: an exact match wins,
// otherwise the first word is tried.
func (s *Stage) Resolve(line string) (string, bool) {
	line = strings.Join(strings.Fields(line), " ")
	if _, ok := s.commands[line]; ok {
		return line, true
	}
	if fields := strings.Fields(line); len(fields) > 0 {
		if _, ok := s.commands[fields[0]]; ok {
			return fields[0], true
		}
	}
	return "", false
}

// Render returns a fresh, empty session.
func (s *Stage) Render() stage.Widget {
	input := textinput.New()
	input.Prompt = s.prompt
	input.CharLimit = 140
	return &widget{stage: s, input: input, ran: map[string]bool{}}
}

// Setup binds the stage and focuses the prompt.
func (s *Stage) Setup(sw stage.Widget, b stage.Binding) (stage.Widget, tea.Cmd) {
	w, ok := sw.(*widget)
	if !ok {
		return sw, nil
	}
	w.binding = b
	return w, w.input.Focus()
}

type outputMsg struct {
	command string
	text    string
}

type widget struct {
	stage   *Stage
	binding stage.Binding
	input   textinput.Model
	width   int
	history []string
	pending int
	ran     map[string]bool
	done    bool
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil
	case outputMsg:
		w.pending--
		w.emit(msg.command, msg.text)
		return w, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter {
			return w, w.run(w.input.Value())
		}
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

func (w *widget) run(line string) tea.Cmd {
	w.input.Reset()
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if line == "clear" {
		w.history = nil
		return nil
	}
	w.history = append(w.history, w.stage.prompt+line)
	command, ok := w.stage.Resolve(line)
	if !ok {
		w.history = append(w.history, fmt.Sprintf("command not found: %s", strings.Fields(line)[0]))
		return nil
	}
	text := w.stage.commands[command]
	if w.stage.slow[command] {
		w.pending++
		w.history = append(w.history, "…")
		return w.binding.Scope.After(w.stage.delay, func() tea.Msg {
			return outputMsg{command: command, text: text}
		})
	}
	w.emit(command, text)
	return nil
}

func (w *widget) emit(command, text string) {
	w.history = append(w.history, strings.Split(text, "\n")...)
	w.ran[command] = true
	if w.done {
		return
	}
	for _, goal := range w.stage.goals {
		if !w.ran[goal] {
			return
		}
	}
	w.done = true
	w.binding.Complete()
}

// remaining lists goals that have not produced output yet.
func (w *widget) remaining() []string {
	var out []string
	for _, goal := range w.stage.goals {
		if !w.ran[goal] {
			out = append(out, goal)
		}
	}
	sort.Strings(out)
	return out
}

func (w *widget) View() string {
	history := w.history
	if len(history) > historyLines {
		history = history[len(history)-historyLines:]
	}
	status := prose.Hint(fmt.Sprintf("%d of %d objectives left · type help", len(w.remaining()), len(w.stage.goals)))
	if w.done {
		status = prose.Success(w.stage.success)
	} else if w.pending > 0 {
		status = prose.Hint("waiting for output…")
	}
	return prose.Join(
		prose.Render(w.stage.content, w.width),
		strings.Join(history, "\n"),
		w.input.View(),
		status,
	)
}
