package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kingrea/relay/internal/config"
	"github.com/kingrea/relay/internal/stages"
	"github.com/kingrea/relay/internal/story"
	"github.com/kingrea/relay/internal/theme"
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Play a staged journey in the terminal",
	Long: `relay walks through an ordered series of interactive stages. Each stage
unlocks the next once it is solved; going back is always allowed.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPlay,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .relay.yaml)")
	flags.String("story", "", "story definition file (default: built-in journey)")
	flags.String("data-dir", "", "directory for logs and snapshots (default .relay)")
	flags.BoolP("verbose", "v", false, "verbose diagnostics log")
	_ = viper.BindPFlag("story", flags.Lookup("story"))
	_ = viper.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(config.DataDir)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

func loadConfig() (config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("determine working directory: %w", err)
	}
	return config.Load(nil, cwd)
}

// loadStory reads path, or the built-in journey when path is empty, and
// checks that every stage resolves. The returned buckets include the
// default partition when the story declares none.
func loadStory(path string) (story.Definition, theme.Buckets, error) {
	def, err := story.Load(path)
	if err == nil {
		def, err = def.Normalized()
	}
	if err != nil {
		return story.Definition{}, nil, err
	}
	_, buckets, err := story.Build(def, stages.Builtins())
	if err != nil {
		return story.Definition{}, nil, err
	}
	return def, buckets, nil
}
