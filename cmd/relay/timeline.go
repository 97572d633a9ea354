package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kingrea/relay/internal/engine"
	"github.com/kingrea/relay/internal/export"
	"github.com/kingrea/relay/internal/stages"
	"github.com/kingrea/relay/internal/story"
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Render the journey timeline to SVG or PNG",
	Long: `Render the journey as a timeline image. With --at N the journey is shown
as if every stage before N had been solved and stage N were on screen.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		at, _ := cmd.Flags().GetInt("at")
		def, _, err := loadStory(cfg.Story)
		if err != nil {
			return err
		}
		path, err := renderTimeline(def, out, at)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Timeline written to %s\n", path)
		return nil
	},
}

func init() {
	timelineCmd.Flags().String("out", "timeline.svg", "output file (.svg or .png)")
	timelineCmd.Flags().Int("at", 0, "index of the stage on screen")
	rootCmd.AddCommand(timelineCmd)
}

// renderTimeline exports the journey as it looks with stage at on screen.
func renderTimeline(def story.Definition, out string, at int) (string, error) {
	state, err := replay(def, at)
	if err != nil {
		return "", err
	}
	return export.SaveTimeline(export.TimelineOptions{Path: out, Title: def.Title, State: state})
}

// replay drives a fresh journey through the engine, solving every stage
// before at.
func replay(def story.Definition, at int) (engine.State, error) {
	reg, buckets, err := story.Build(def, stages.Builtins())
	if err != nil {
		return engine.State{}, err
	}
	journey, err := engine.New(reg, engine.WithBuckets(buckets))
	if err != nil {
		return engine.State{}, err
	}
	defer journey.Close()
	if at < 0 || at >= journey.Count() {
		return engine.State{}, fmt.Errorf("--at %d is outside 0..%d", at, journey.Count()-1)
	}
	journey.Start()
	for i := 0; i < at; i++ {
		journey.GoTo(i)
		journey.MarkComplete(i)
	}
	journey.GoTo(at)
	return journey.Snapshot(), nil
}
