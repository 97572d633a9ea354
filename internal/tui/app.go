// internal/tui/app.go
//
// The terminal front end of a journey. It owns the chrome (header, position
// indicator, navigation affordances, progress dots, journal panel) and hands
// every other key to the stage on screen through the engine.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/relay/internal/config"
	"github.com/kingrea/relay/internal/engine"
	"github.com/kingrea/relay/internal/export"
	"github.com/kingrea/relay/internal/logbook"
	"github.com/kingrea/relay/internal/logging"
	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages"
	"github.com/kingrea/relay/internal/story"
	"github.com/kingrea/relay/internal/watcher"
)

// chromeRows is the height taken by everything except the stage.
const chromeRows = 9

// StoryLoader returns the definition to play. It is called again on every
// reload.
type StoryLoader func() (story.Definition, error)

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithKinds overrides the stage kind catalogue.
func WithKinds(kinds *stage.Kinds) AppOption {
	return func(a *App) {
		if kinds != nil {
			a.kinds = kinds
		}
	}
}

// WithLogbook attaches the journey journal.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// WithLogger attaches the diagnostics log.
func WithLogger(logger *logging.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithWatcher reloads the journey whenever w reports a change.
func WithWatcher(w *watcher.Watcher) AppOption {
	return func(a *App) {
		a.watcher = w
	}
}

// WithClock overrides the clock used to name exports.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.now = clock
		}
	}
}

type storyChangedMsg struct{}

type exportedMsg struct {
	path string
	err  error
}

// App is the Bubble Tea model of a running journey.
type App struct {
	config  config.Config
	load    StoryLoader
	kinds   *stage.Kinds
	logbook *logbook.Logbook
	logger  *logging.Logger
	watcher *watcher.Watcher
	now     func() time.Time

	story   story.Definition
	journey *engine.Orchestrator
	reloads int

	keys        KeyMap
	help        help.Model
	showJournal bool
	statusMsg   string

	width  int
	height int
}

// NewApp loads the story and builds the first journey.
func NewApp(cfg config.Config, load StoryLoader, opts ...AppOption) (*App, error) {
	if load == nil {
		return nil, fmt.Errorf("tui: story loader is required")
	}
	app := &App{
		config: cfg,
		load:   load,
		kinds:  stages.Builtins(),
		now:    time.Now,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	if err := app.rebuild(); err != nil {
		return nil, err
	}
	return app, nil
}

// Journey exposes the engine driving the current journey.
func (a *App) Journey() *engine.Orchestrator {
	return a.journey
}

// rebuild discards the whole journey and constructs a new one from the
// loader. The previous journey survives when the new story is invalid.
func (a *App) rebuild() error {
	def, err := a.load()
	if err != nil {
		return err
	}
	reg, buckets, err := story.Build(def, a.kinds)
	if err != nil {
		return err
	}
	opts := []engine.Option{engine.WithBuckets(buckets)}
	if a.logbook != nil {
		opts = append(opts, engine.WithJournal(a.logbook), engine.WithSession(a.logbook.Session()))
	}
	journey, err := engine.New(reg, opts...)
	if err != nil {
		return err
	}
	if a.journey != nil {
		a.journey.Close()
	}
	a.journey = journey
	a.story, _ = def.Normalized()
	return nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook != nil {
		a.logbook.Info(format, args...)
	}
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook != nil {
		a.logbook.Warn(format, args...)
	}
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	a.logInfo("Session opened · %s (%d stages)", a.story.Title, a.journey.Count())
	return tea.Batch(a.begin(), a.watchStory())
}

// begin shows the configured first stage. A start index is an authoring
// shortcut: it opens that stage directly without solving the ones before
// it, and leaves their completion flags untouched.
func (a *App) begin() tea.Cmd {
	cmd := a.journey.Start()
	if a.config.Start > 0 && a.config.Start < a.journey.Count() {
		cmd = a.journey.GoTo(a.config.Start)
		a.logWarn("Opened at stage %d/%d, skipping the gates before it", a.config.Start+1, a.journey.Count())
	}
	return a.settle(cmd)
}

// settle tells the freshly rendered stage how much room it has.
func (a *App) settle(cmd tea.Cmd) tea.Cmd {
	if a.width == 0 {
		return cmd
	}
	resize := a.journey.Update(tea.WindowSizeMsg{Width: a.stageWidth(), Height: a.stageHeight()})
	return tea.Batch(cmd, resize)
}

func (a *App) stageWidth() int {
	return max(20, a.width-6)
}

func (a *App) stageHeight() int {
	rows := a.height - chromeRows
	if a.showJournal {
		rows -= a.config.LogLines + 3
	}
	return max(5, rows)
}

func (a *App) watchStory() tea.Cmd {
	if a.watcher == nil {
		return nil
	}
	changed := a.watcher.Changed()
	return func() tea.Msg {
		<-changed
		return storyChangedMsg{}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, a.settle(nil)

	case storyChangedMsg:
		return a, tea.Batch(a.reload(), a.watchStory())

	case exportedMsg:
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Export failed: %v", msg.err)
			a.logWarn("Export failed: %v", msg.err)
		} else {
			a.statusMsg = fmt.Sprintf("Timeline saved to %s", msg.path)
			a.logInfo("Timeline saved · %s", filepath.Base(msg.path))
		}
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.logInfo("Session closed at %d/%d", a.journey.Current()+1, a.journey.Count())
			a.journey.Close()
			return a, tea.Quit
		case key.Matches(msg, a.keys.Next):
			cmd := a.journey.Advance()
			if cmd == nil {
				return a, nil
			}
			a.statusMsg = ""
			return a, a.settle(cmd)
		case key.Matches(msg, a.keys.Prev):
			cmd := a.journey.Retreat()
			if cmd == nil {
				return a, nil
			}
			a.statusMsg = ""
			return a, a.settle(cmd)
		case key.Matches(msg, a.keys.Export):
			return a, a.exportTimeline()
		case key.Matches(msg, a.keys.Journal):
			a.showJournal = !a.showJournal
			return a, a.settle(nil)
		}
	}
	return a, a.journey.Update(msg)
}

// reload rebuilds everything from the story source and starts over.
func (a *App) reload() tea.Cmd {
	if err := a.rebuild(); err != nil {
		a.statusMsg = fmt.Sprintf("Reload failed, keeping the current journey: %v", err)
		a.logWarn("Reload failed: %v", err)
		return nil
	}
	a.reloads++
	a.statusMsg = "Story reloaded"
	a.logInfo("Story reloaded · %s (%d stages)", a.story.Title, a.journey.Count())
	return a.begin()
}

func (a *App) exportTimeline() tea.Cmd {
	state := a.journey.Snapshot()
	stamp := a.now().UTC().Format("20060102-150405")
	base := filepath.Join(a.config.SnapshotsDir(), "timeline-"+stamp)
	title := a.story.Title
	return func() tea.Msg {
		path, err := export.SaveTimeline(export.TimelineOptions{Path: base + ".svg", Title: title, State: state})
		if err == nil {
			err = export.SaveState(base+".json", state)
		}
		return exportedMsg{path: path, err: err}
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	frame := a.journey.Frame()
	palette := PaletteFor(frame.Theme)

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(palette.Accent).
		Render(truncate("⬡ "+strings.ToUpper(a.story.Title), width, "…"))
	era := lipgloss.NewStyle().Foreground(palette.Muted).Render(frame.Theme.Name())

	sections := []string{
		spread(header, era, width),
		a.renderNavigation(frame, palette, width),
		a.renderDots(frame, palette, width),
		lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.Border).
			Padding(0, 1).
			Width(max(20, width-2)).
			Render(a.journey.View()),
	}
	if a.showJournal {
		if panel := a.renderJournal(palette, width); panel != "" {
			sections = append(sections, panel)
		}
	}
	if a.statusMsg != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(palette.Muted).Render(truncate(a.statusMsg, width, "…")))
	}
	sections = append(sections, a.help.View(a.keys))
	return strings.Join(sections, "\n")
}

func (a *App) renderNavigation(frame engine.Frame, palette Palette, width int) string {
	enabled := lipgloss.NewStyle().Bold(true).Foreground(palette.Accent)
	disabled := lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#555555"))
	prev, next := disabled.Render("◀ Prev"), disabled.Render("Next ▶")
	if frame.PrevEnabled {
		prev = enabled.Render("◀ Prev")
	}
	if frame.NextEnabled {
		next = enabled.Render("Next ▶")
	}
	room := width - lipgloss.Width(prev) - lipgloss.Width(next) - 4
	indicator := lipgloss.NewStyle().Bold(true).Render(truncate(frame.Indicator, max(8, room), "…"))
	return spread(prev+"  "+indicator, next, width)
}

func (a *App) renderDots(frame engine.Frame, palette Palette, width int) string {
	current := lipgloss.NewStyle().Foreground(palette.Accent)
	done := lipgloss.NewStyle().Foreground(palette.Done)
	pending := lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	var b strings.Builder
	for _, dot := range frame.Dots {
		switch {
		case dot.Current && dot.Completed:
			b.WriteString(current.Bold(true).Render(dotCurrent))
		case dot.Current:
			b.WriteString(current.Render(dotCurrent))
		case dot.Completed:
			b.WriteString(done.Render(dotCompleted))
		default:
			b.WriteString(pending.Render(dotPending))
		}
	}
	summary := pending.Render(fmt.Sprintf("%d/%d", countCompleted(frame.Dots), frame.Count))
	return spread(b.String(), summary, width)
}

func countCompleted(dots []engine.Dot) int {
	n := 0
	for _, dot := range dots {
		if dot.Completed {
			n++
		}
	}
	return n
}

func (a *App) renderJournal(palette Palette, width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(a.config.LogLines)
	if len(lines) == 0 {
		return ""
	}
	for i, line := range lines {
		lines[i] = truncate(line, max(10, width-6), "…")
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(palette.Accent).
		Render(fmt.Sprintf("JOURNAL · %s (%d entries)", filepath.Base(a.logbook.Path()), total))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}
