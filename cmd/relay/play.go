package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/kingrea/relay/internal/config"
	"github.com/kingrea/relay/internal/logbook"
	"github.com/kingrea/relay/internal/logging"
	"github.com/kingrea/relay/internal/stages/prose"
	"github.com/kingrea/relay/internal/story"
	"github.com/kingrea/relay/internal/tui"
	"github.com/kingrea/relay/internal/watcher"
)

func init() {
	flags := rootCmd.Flags()
	flags.Bool("watch", false, "reload the journey when the story file changes")
	flags.Int("start", 0, "index of the first stage to show (authoring: skips the gates before it)")
	flags.Bool("alt-screen", true, "use the alternate screen buffer")
	_ = viper.BindPFlag("watch", flags.Lookup("watch"))
	_ = viper.BindPFlag("start", flags.Lookup("start"))
	_ = viper.BindPFlag("alt_screen", flags.Lookup("alt-screen"))
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

func runPlay(cmd *cobra.Command, _ []string) error {
	if !isTTY() {
		return fmt.Errorf("relay needs an interactive terminal; try `relay stages` or `relay timeline`")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.InitDataDir(cfg.DataDir); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogsDir(), cfg.Verbose)
	if err != nil {
		return err
	}
	defer logger.Close()

	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	prose.UseStyle(prose.AutoStyle)

	opts := []tui.AppOption{tui.WithLogbook(lb), tui.WithLogger(logger)}
	if cfg.Watch && !cfg.UsesBuiltinStory() {
		w, err := watcher.New(cfg.Story, watcher.WithOnError(func(err error) {
			logger.Printf("watch %s: %v", cfg.Story, err)
		}))
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return fmt.Errorf("watch %s: %w", cfg.Story, err)
		}
		defer w.Stop()
		logger.Debugf("watching %s (polling: %v)", w.Path(), w.IsPolling())
		opts = append(opts, tui.WithWatcher(w))
	}

	path := cfg.Story
	app, err := tui.NewApp(cfg, func() (story.Definition, error) { return story.Load(path) }, opts...)
	if err != nil {
		return err
	}
	logger.Printf("session %s started (story %q)", lb.Session(), path)

	var programOpts []tea.ProgramOption
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(app, programOpts...).Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	logger.Printf("session %s ended", lb.Session())
	return nil
}
