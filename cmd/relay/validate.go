package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check that a story definition loads and every stage resolves",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Story
		}
		return validateStory(cmd.OutOrStdout(), path)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateStory(w io.Writer, path string) error {
	label := path
	if label == "" {
		label = "built-in journey"
	}
	def, buckets, err := loadStory(path)
	if err != nil {
		fmt.Fprintf(w, "✗ %s\n", label)
		return err
	}
	fmt.Fprintf(w, "✓ %s: %s (%d stages, %d themes)\n", label, def.Title, len(def.Stages), len(buckets))
	return nil
}
