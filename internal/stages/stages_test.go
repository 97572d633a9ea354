package stages_test

import (
	"sort"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/relay/internal/engine"
	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages"
	"github.com/kingrea/relay/internal/stages/prose"
	"github.com/kingrea/relay/internal/story"
)

func defaultJourney(t *testing.T) (*engine.Orchestrator, story.Definition) {
	t.Helper()
	prose.UseStyle(prose.PlainStyle)
	def, err := story.Default()
	if err != nil {
		t.Fatalf("default story: %v", err)
	}
	reg, buckets, err := story.Build(def, stages.Builtins())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	o, err := engine.New(reg, engine.WithBuckets(buckets))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	t.Cleanup(o.Close)
	o.Start()
	return o, def
}

func indexOf(t *testing.T, def story.Definition, id string) int {
	t.Helper()
	idx, ok := def.Index(id)
	if !ok {
		t.Fatalf("stage %s missing from the story", id)
	}
	return idx
}

func keys(o *engine.Orchestrator, text string) {
	for _, r := range text {
		switch r {
		case '\n':
			o.Update(tea.KeyMsg{Type: tea.KeyEnter})
		case ' ':
			o.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
		default:
			o.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		}
	}
}

// pump delivers the messages cmd produces back into o the way the runtime
// would, expanding batches and sequences. Commands that block (timers) are
// abandoned after a short wait.
func pump(o *engine.Orchestrator, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 64; steps++ {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := await(next)
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if seq, ok := stage.Sequenced(msg); ok {
			queue = append(queue, seq...)
			continue
		}
		if msg == nil {
			continue
		}
		queue = append(queue, o.Update(msg))
	}
}

func await(cmd tea.Cmd) tea.Msg {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func TestOralQuizAnsweredWithKeysUnlocksNext(t *testing.T) {
	o, def := defaultJourney(t)
	oral := indexOf(t, def, "oral")
	pump(o, o.GoTo(oral))
	if o.IsComplete(oral) {
		t.Fatalf("the quiz must start locked")
	}

	questions := def.Stages[oral].Params.List("questions")
	if len(questions) != 3 {
		t.Fatalf("questions = %d", len(questions))
	}
	for i, q := range questions {
		pump(o, o.Advance())
		if o.Current() != oral || o.IsComplete(oral) {
			t.Fatalf("advance before answer %d moved to %d", i, o.Current())
		}
		answer := q.String("answer", "")
		for _, option := range q.Strings("options") {
			if option == answer {
				break
			}
			pump(o, o.Update(tea.KeyMsg{Type: tea.KeyDown}))
		}
		pump(o, o.Update(tea.KeyMsg{Type: tea.KeyEnter}))
	}

	if !o.IsComplete(oral) {
		t.Fatalf("three correct answers should complete the quiz:\n%s", o.View())
	}
	if !strings.Contains(o.View(), "Perfect") {
		t.Fatalf("success message missing:\n%s", o.View())
	}
	pump(o, o.Advance())
	if o.Current() != oral+1 {
		t.Fatalf("advance after the quiz landed on %d", o.Current())
	}
}

func TestBuiltinsCoverEveryKind(t *testing.T) {
	got := stages.Builtins().Names()
	sort.Strings(got)
	want := []string{"chat", "countdown", "morse", "passage", "quiz", "search", "sequence", "terminal", "transcribe"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("kinds = %v", got)
	}
}

func TestDefaultStoryRendersEveryStage(t *testing.T) {
	o, _ := defaultJourney(t)
	if o.Count() != 24 {
		t.Fatalf("count = %d", o.Count())
	}
	for i := 0; i < o.Count(); i++ {
		o.GoTo(i)
		o.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		if o.Current() != i {
			t.Fatalf("goto %d landed on %d", i, o.Current())
		}
		if strings.TrimSpace(o.View()) == "" {
			t.Fatalf("stage %d rendered nothing", i)
		}
	}
	if !o.IsComplete(0) || !o.IsComplete(o.Count()-1) {
		t.Fatalf("prologue and epilogue should start complete")
	}
}

func TestDefaultStoryInteractions(t *testing.T) {
	o, def := defaultJourney(t)

	papyrus := indexOf(t, def, "papyrus")
	o.GoTo(papyrus)
	if o.IsComplete(papyrus) {
		t.Fatalf("papyrus needs confirmation")
	}
	keys(o, "\n")
	if !o.IsComplete(papyrus) {
		t.Fatalf("enter should confirm the papyrus")
	}

	telegraph := indexOf(t, def, "telegraph")
	o.GoTo(telegraph)
	keys(o, "-.-. --- -- . -\n")
	if !o.IsComplete(telegraph) {
		t.Fatalf("COMET in morse should complete the telegraph:\n%s", o.View())
	}

	computer := indexOf(t, def, "computer")
	o.GoTo(computer)
	keys(o, "cat data/cycle_76.txt\n")
	if !o.IsComplete(computer) {
		t.Fatalf("printing the cycle file should complete the computer:\n%s", o.View())
	}
}
