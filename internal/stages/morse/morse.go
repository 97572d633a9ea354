// Package morse implements a telegraph key: tap out a word in Morse code
// with '.' and '-', separating letters with a space.
package morse

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for morse stages.
const Kind = "morse"

var alphabet = map[rune]string{
	'A': ".-", 'B': "-...", 'C': "-.-.", 'D': "-..", 'E': ".", 'F': "..-.",
	'G': "--.", 'H': "....", 'I': "..", 'J': ".---", 'K': "-.-", 'L': ".-..",
	'M': "--", 'N': "-.", 'O': "---", 'P': ".--.", 'Q': "--.-", 'R': ".-.",
	'S': "...", 'T': "-", 'U': "..-", 'V': "...-", 'W': ".--", 'X': "-..-",
	'Y': "-.--", 'Z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
}

// Encode returns the Morse code for word, letters separated by single
// spaces.
func Encode(word string) (string, error) {
	var letters []string
	for _, r := range strings.ToUpper(word) {
		code, ok := alphabet[r]
		if !ok {
			return "", fmt.Errorf("morse: cannot encode %q", r)
		}
		letters = append(letters, code)
	}
	return strings.Join(letters, " "), nil
}

// Decode turns space separated Morse letters back into text. Unknown
// letters decode as '?'.
func Decode(code string) string {
	var b strings.Builder
	for _, letter := range strings.Fields(code) {
		r := '?'
		for candidate, c := range alphabet {
			if c == letter {
				r = candidate
				break
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Stage asks for one word in Morse.
type Stage struct {
	stage.Base
	content string
	word    string
	code    string
	success string
	failure string
}

// New builds a morse stage. Params: word, success, failure.
func New(spec stage.Spec) (stage.Stage, error) {
	word := strings.ToUpper(spec.Params.String("word", ""))
	if word == "" {
		return nil, fmt.Errorf("morse: word is required")
	}
	code, err := Encode(word)
	if err != nil {
		return nil, err
	}
	return &Stage{
		Base:    stage.NewBase(stage.InfoFromSpec(spec)),
		content: spec.Content,
		word:    word,
		code:    code,
		success: spec.Params.String("success", "Message received down the line."),
		failure: spec.Params.String("failure", "The operator could not read that."),
	}, nil
}

// Register installs the morse kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Render returns a fresh telegraph key.
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
	stage   *Stage
	binding stage.Binding
	width   int
	tapped  string
	sent    bool
	done    bool
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
	case tea.KeyMsg:
		if w.done {
			return w, nil
		}
		switch msg.String() {
		case ".", "-":
			w.tapped += msg.String()
			w.sent = false
		case " ":
			if w.tapped != "" && !strings.HasSuffix(w.tapped, " ") {
				w.tapped += " "
			}
		case "backspace":
			if w.tapped != "" {
				w.tapped = w.tapped[:len(w.tapped)-1]
			}
			w.sent = false
		case "enter":
			w.submit()
		}
	}
	return w, nil
}

func (w *widget) submit() {
	w.sent = true
	if strings.Join(strings.Fields(w.tapped), " ") != w.stage.code {
		return
	}
	w.done = true
	w.binding.Complete()
}

func (w *widget) View() string {
	tapped := w.tapped
	if tapped == "" {
		tapped = "…"
	}
	reading := fmt.Sprintf("%s  (%s)", prose.Focus(tapped), Decode(w.tapped))
	status := prose.Hint(". dot · - dash · space next letter · enter send")
	switch {
	case w.done:
		status = prose.Success(w.stage.success)
	case w.sent:
		status = prose.Failure(w.stage.failure)
	}
	return prose.Join(
		prose.Render(w.stage.content, w.width),
		fmt.Sprintf("Send: %s", w.stage.word),
		reading,
		status,
	)
}
