// Command stage-runner opens a single stage of a story on its own, for
// authoring and debugging stage content without walking the whole journey.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/relay/internal/config"
	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/story"
	"github.com/kingrea/relay/internal/theme"
	"github.com/kingrea/relay/internal/tui"
)

func main() {
	storyPath := flag.String("story", "", "story definition file (defaults to the built-in journey)")
	stageID := flag.String("stage", "", "stage identifier to open (e.g. telegraph)")
	paramsFile := flag.String("params-file", "", "path to YAML/JSON file with stage param overrides")
	altScreen := flag.Bool("alt-screen", true, "use the alternate screen buffer")
	sets := keyValueFlag{}
	flag.Var(&sets, "set", "stage param override (key=value, repeatable)")
	flag.Parse()

	if strings.TrimSpace(*stageID) == "" {
		die("--stage is required")
	}
	def, err := story.Load(*storyPath)
	if err != nil {
		die("load story: %v", err)
	}
	overrides, err := buildOverrides(*paramsFile, sets)
	if err != nil {
		die("load param overrides: %v", err)
	}
	single, err := isolate(def, *stageID, overrides)
	if err != nil {
		die("%v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		die("determine working directory: %v", err)
	}
	cfg, err := config.Load(viper.New(), cwd)
	if err != nil {
		die("load config: %v", err)
	}
	app, err := tui.NewApp(cfg, func() (story.Definition, error) { return single, nil })
	if err != nil {
		die("build stage: %v", err)
	}
	var opts []tea.ProgramOption
	if *altScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		die("run stage: %v", err)
	}
	if app.Journey().IsComplete(0) {
		fmt.Printf("%s completed.\n", single.Stages[0].Title)
		return
	}
	fmt.Printf("%s left unfinished.\n", single.Stages[0].Title)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// isolate cuts the stage with id out of def into a one-stage story that
// keeps the stage's theme.
func isolate(def story.Definition, id string, overrides stage.Params) (story.Definition, error) {
	def, err := def.Normalized()
	if err != nil {
		return story.Definition{}, err
	}
	index, ok := def.Index(id)
	if !ok {
		return story.Definition{}, fmt.Errorf("stage %q not found in %s", id, def.ID)
	}
	sd := def.Stages[index]
	sd.Params = sd.Params.Clone()
	if len(overrides) > 0 && sd.Params == nil {
		sd.Params = stage.Params{}
	}
	for key, value := range overrides {
		sd.Params[key] = value
	}
	bucket, ok := def.Themes.Select(index)
	if !ok {
		bucket = theme.Default(1)[0]
	}
	bucket.From, bucket.To = 0, 0
	return story.Definition{
		ID:     def.ID + "/" + sd.ID,
		Title:  sd.Title,
		Themes: theme.Buckets{bucket},
		Stages: []story.StageDef{sd},
	}, nil
}

type keyValueFlag map[string]string

func (kv *keyValueFlag) String() string {
	if kv == nil || len(*kv) == 0 {
		return ""
	}
	var pairs []string
	for key, value := range *kv {
		pairs = append(pairs, fmt.Sprintf("%s=%s", key, value))
	}
	return strings.Join(pairs, ", ")
}

func (kv *keyValueFlag) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	key := strings.TrimSpace(parts[0])
	if key == "" {
		return fmt.Errorf("override key is empty in %q", value)
	}
	if *kv == nil {
		*kv = keyValueFlag{}
	}
	(*kv)[key] = parts[1]
	return nil
}

func buildOverrides(paramsFile string, sets keyValueFlag) (stage.Params, error) {
	var params stage.Params
	if path := strings.TrimSpace(paramsFile); path != "" {
		fileParams, err := readParamsFile(path)
		if err != nil {
			return nil, err
		}
		params = fileParams
	}
	if len(sets) > 0 {
		if params == nil {
			params = stage.Params{}
		}
		for key, value := range sets {
			params[key] = value
		}
	}
	return params, nil
}

func readParamsFile(path string) (stage.Params, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open params file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, expected a file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params file %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("params file %s is empty", path)
	}
	var params stage.Params
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("parse params file %s: %w", path, err)
	}
	if len(params) == 0 {
		return nil, nil
	}
	return params, nil
}
