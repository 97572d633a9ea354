// Package chat implements a simulated assistant: pick a question, watch it
// think, read the reply. The stage completes once every topic was asked.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/prose"
)

// Kind is the catalogue key for chat stages.
const Kind = "chat"

// Topic is one question the user can ask and its canned reply.
type Topic struct {
	Ask   string
	Reply string
}

// Stage is a scripted conversation.
type Stage struct {
	stage.Base
	content string
	topics  []Topic
	delay   time.Duration
	success string
}

// New builds a chat stage. Params: topics (list of ask, reply), delay
// (thinking time, default 1s), success.
func New(spec stage.Spec) (stage.Stage, error) {
	var topics []Topic
	for i, raw := range spec.Params.List("topics") {
		t := Topic{Ask: raw.String("ask", ""), Reply: raw.String("reply", "")}
		if t.Ask == "" || t.Reply == "" {
			return nil, fmt.Errorf("chat: topic %d needs ask and reply", i)
		}
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("chat: at least one topic is required")
	}
	return &Stage{
		Base:    stage.NewBase(stage.InfoFromSpec(spec)),
		content: spec.Content,
		topics:  topics,
		delay:   spec.Params.Duration("delay", time.Second),
		success: spec.Params.String("success", "You learned everything the assistant knows."),
	}, nil
}

// Register installs the chat kind.
func Register(kinds *stage.Kinds) {
	kinds.MustRegister(Kind, New)
}

// Render returns a fresh conversation.
func (s *Stage) Render() stage.Widget {
	return &widget{
		stage:    s,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		asked:    make([]bool, len(s.topics)),
		thinking: -1,
	}
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

type replyMsg struct{ topic int }

type exchange struct {
	ask   string
	reply string
}

type widget struct {
	stage    *Stage
	binding  stage.Binding
	spinner  spinner.Model
	width    int
	cursor   int
	asked    []bool
	thinking int
	log      []exchange
	done     bool
}

func (w *widget) Update(msg tea.Msg) (stage.Widget, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w.width = msg.Width
	case spinner.TickMsg:
		if w.thinking < 0 {
			return w, nil
		}
		var cmd tea.Cmd
		w.spinner, cmd = w.spinner.Update(msg)
		return w, cmd
	case replyMsg:
		w.answer(msg.topic)
	case tea.KeyMsg:
		if w.thinking >= 0 {
			return w, nil
		}
		switch msg.String() {
		case "up", "k":
			if w.cursor > 0 {
				w.cursor--
			}
		case "down", "j":
			if w.cursor < len(w.stage.topics)-1 {
				w.cursor++
			}
		case "enter", " ":
			return w, w.ask(w.cursor)
		}
	}
	return w, nil
}

func (w *widget) ask(topic int) tea.Cmd {
	if topic < 0 || topic >= len(w.stage.topics) {
		return nil
	}
	w.thinking = topic
	reply := w.binding.Scope.After(w.stage.delay, func() tea.Msg { return replyMsg{topic: topic} })
	return tea.Batch(w.spinner.Tick, reply)
}

func (w *widget) answer(topic int) {
	if topic != w.thinking {
		return
	}
	w.thinking = -1
	t := w.stage.topics[topic]
	w.log = append(w.log, exchange{ask: t.Ask, reply: t.Reply})
	w.asked[topic] = true
	if w.done {
		return
	}
	for _, asked := range w.asked {
		if !asked {
			return
		}
	}
	w.done = true
	w.binding.Complete()
}

func (w *widget) View() string {
	var convo []string
	for _, ex := range w.log {
		convo = append(convo, "you › "+ex.ask, prose.Render(ex.reply, w.width))
	}
	if w.thinking >= 0 {
		convo = append(convo, "you › "+w.stage.topics[w.thinking].Ask, w.spinner.View()+" thinking…")
	}
	var menu []string
	for i, t := range w.stage.topics {
		mark := "  "
		if w.asked[i] {
			mark = "✓ "
		}
		row := mark + t.Ask
		if i == w.cursor && w.thinking < 0 {
			row = prose.Focus("› " + row)
		} else {
			row = "  " + row
		}
		menu = append(menu, row)
	}
	status := prose.Hint("↑/↓ choose · enter ask")
	if w.done {
		status = prose.Success(w.stage.success)
	}
	return prose.Join(
		prose.Render(w.stage.content, w.width),
		strings.Join(convo, "\n"),
		strings.Join(menu, "\n"),
		status,
	)
}
