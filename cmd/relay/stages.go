package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kingrea/relay/internal/story"
	"github.com/kingrea/relay/internal/theme"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "List the stages of the journey",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		def, buckets, err := loadStory(cfg.Story)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return writeStages(cmd.OutOrStdout(), stageRows(def, buckets), asJSON)
	},
}

func init() {
	stagesCmd.Flags().Bool("json", false, "print the stage list as JSON")
	rootCmd.AddCommand(stagesCmd)
}

type stageRow struct {
	Index          int    `json:"index"`
	ID             string `json:"id"`
	Title          string `json:"title"`
	Kind           string `json:"kind"`
	Theme          string `json:"theme"`
	StartsComplete bool   `json:"starts_complete,omitempty"`
}

func stageRows(def story.Definition, buckets theme.Buckets) []stageRow {
	rows := make([]stageRow, len(def.Stages))
	for i, sd := range def.Stages {
		bucket, _ := buckets.Select(i)
		rows[i] = stageRow{
			Index:          i,
			ID:             sd.ID,
			Title:          sd.Title,
			Kind:           sd.Kind,
			Theme:          bucket.ID,
			StartsComplete: sd.StartsComplete,
		}
	}
	return rows
}

func writeStages(w io.Writer, rows []stageRow, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tKIND\tTHEME\tTITLE")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", row.Index+1, row.ID, row.Kind, row.Theme, row.Title)
	}
	return tw.Flush()
}
