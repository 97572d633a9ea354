// Package transcribe implements copying stages. In hand mode the user
// copies a passage and is scored on accuracy; in press mode each key press
// prints a copy to the system clipboard until enough copies exist.
package transcribe

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for transcribe stages.
const Kind = "transcribe"

// Modes.
const (
	ModeHand  = "hand"
	ModePress = "press"
)

// Clipboard is where press mode prints its copies.
type Clipboard interface {
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}

// Stage is a copying exercise.
type Stage struct {
	stage.Base
	content   string
	mode      string
	text      string
	threshold float64
	copies    int
	success   string
	failure   string
	clip      Clipboard
}

// Factory returns a constructor that prints to clip. A nil clip uses the
// system clipboard.
func Factory(clip Clipboard) stage.Factory {
	if clip == nil {
		clip = systemClipboard{}
	}
	return func(spec stage.Spec) (stage.Stage, error) {
		return build(spec, clip)
	}
}

// New builds a transcribe stage on the system clipboard. Params: mode
// (hand|press), text, threshold (hand, default 0.9), copies (press, default
// 3), success, failure.
func New(spec stage.Spec) (stage.Stage, error) {
	return build(spec, systemClipboard{})
}

func build(spec stage.Spec, clip Clipboard) (stage.Stage, error) {
	text := spec.Params.String("text", "")
	if text == "" {
		return nil, fmt.Errorf("transcribe: text is required")
	}
	mode := strings.ToLower(spec.Params.String("mode", ModeHand))
	if mode != ModeHand && mode != ModePress {
		return nil, fmt.Errorf("transcribe: unknown mode %q", mode)
	}
	threshold := spec.Params.Float("threshold", 0.9)
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("transcribe: threshold must be in (0, 1]")
	}
	copies := spec.Params.Int("copies", 3)
	if copies < 1 {
		return nil, fmt.Errorf("transcribe: copies must be positive")
	}
	return &Stage{
		Base:      stage.NewBase(stage.InfoFromSpec(spec)),
		content:   spec.Content,
		mode:      mode,
		text:      text,
		threshold: threshold,
		copies:    copies,
		success:   spec.Params.String("success", "Faithfully copied."),
		failure:   spec.Params.String("failure", "Too many mistakes."),
		clip:      clip,
	}, nil
}

// Register installs the transcribe kind on the system clipboard.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Accuracy scores a copy against the original, ignoring case and runs of
// whitespace.
func (s *Stage) Accuracy(copy string) float64 {
	return levenshtein.Similarity(normalize(copy), normalize(s.text), nil)
}

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Render returns a fresh copying desk.
func (s *Stage) Render() stage.Widget {
	input := textinput.New()
	input.Prompt = "✎ "
	input.Placeholder = "copy the text here"
	input.CharLimit = len(s.text) * 2
	return &widget{
		stage: s,
		input: input,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// Setup binds the stage and, in hand mode, focuses the input.
func (s *Stage) Setup(sw stage.Widget, b stage.Binding) (stage.Widget, tea.Cmd) {
	w, ok := sw.(*widget)
	if !ok {
		return sw, nil
	}
	w.binding = b
	if s.mode == ModeHand {
		return w, w.input.Focus()
	}
	return w, nil
}

type printedMsg struct{ err error }

type widget struct {
	stage    *Stage
	binding  stage.Binding
	input    textinput.Model
	bar      progress.Model
	width    int
	accuracy float64
	scored   bool
	printed  int
	printing bool
	printErr error
	done     bool
}

func (w *widget) complete() {
	if w.done {
		return
	}
	w.done = true
	w.binding.Complete()
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
		return w, nil
	case printedMsg:
		w.printing = false
		w.printErr = msg.err
		w.printed++
		if w.printed >= w.stage.copies {
			w.complete()
		}
		return w, nil
	case tea.KeyMsg:
		if w.stage.mode == ModePress {
			if msg.String() == "p" && !w.printing && !w.done {
				w.printing = true
				return w, w.print()
			}
			return w, nil
		}
		if msg.Type == tea.KeyEnter && !w.done {
			w.score(w.input.Value())
			return w, nil
		}
	}
	if w.stage.mode == ModePress || w.done {
		return w, nil
	}
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	return w, cmd
}

func (w *widget) print() tea.Cmd {
	clip, text := w.stage.clip, w.stage.text
	return func() tea.Msg {
		return printedMsg{err: clip.WriteAll(text)}
	}
}

func (w *widget) score(copy string) {
	w.accuracy = w.stage.Accuracy(copy)
	w.scored = true
	if w.accuracy >= w.stage.threshold {
		w.input.Blur()
		w.complete()
	}
}

func (w *widget) View() string {
	intro := prose.Render(w.stage.content, w.width)
	original := prose.Focus(w.stage.text)
	if w.stage.mode == ModePress {
		fraction := float64(w.printed) / float64(w.stage.copies)
		counter := fmt.Sprintf("%s %d/%d copies", w.bar.ViewAs(fraction), w.printed, w.stage.copies)
		status := prose.Hint("p: print a copy to the clipboard")
		switch {
		case w.done:
			status = prose.Success(w.stage.success)
		case w.printing:
			status = prose.Hint("printing…")
		}
		note := ""
		if w.printErr != nil {
			note = prose.Hint(fmt.Sprintf("copy kept in memory only: %v", w.printErr))
		}
		return prose.Join(intro, original, counter, status, note)
	}
	status := prose.Hint(fmt.Sprintf("enter: submit · %.0f%% accuracy needed", w.stage.threshold*100))
	switch {
	case w.done:
		status = prose.Success(fmt.Sprintf("%s (%.0f%%)", w.stage.success, w.accuracy*100))
	case w.scored:
		status = prose.Failure(fmt.Sprintf("%s (%.0f%%)", w.stage.failure, w.accuracy*100))
	}
	return prose.Join(intro, original, w.input.View(), status)
}
