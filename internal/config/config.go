// internal/config/config.go
//
// This package handles runtime configuration and the data directory layout.
// Values come from .relay.yaml, RELAY_* env vars and CLI flags, all merged
// by viper.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DataDir is the default directory created next to the player.
	DataDir = ".relay"

	// EnvPrefix namespaces environment overrides (RELAY_STORY, ...).
	EnvPrefix = "RELAY"

	defaultLogLines = 8
	maxLogLines     = 100
)

// Config holds all runtime configuration for a relay session.
type Config struct {
	// Story is the path of a story definition. Empty means the built-in
	// journey.
	Story     string `mapstructure:"story"`
	DataDir   string `mapstructure:"data_dir"`
	LogLines  int    `mapstructure:"log_lines"`
	Watch     bool   `mapstructure:"watch"`
	AltScreen bool   `mapstructure:"alt_screen"`
	// Start is the stage index shown first. It bypasses the gates of the
	// stages before it and is meant for authoring; indices outside the
	// journey fall back to 0.
	Start   int  `mapstructure:"start"`
	Verbose bool `mapstructure:"verbose"`
}

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("story", "")
	v.SetDefault("data_dir", DataDir)
	v.SetDefault("log_lines", defaultLogLines)
	v.SetDefault("watch", false)
	v.SetDefault("alt_screen", true)
	v.SetDefault("start", 0)
	v.SetDefault("verbose", false)
}

// Load reads configuration from v (the global viper when nil), applying
// built-in defaults for any values not set by config file, environment, or
// flags. Relative paths are resolved against base.
func Load(v *viper.Viper, base string) (Config, error) {
	if v == nil {
		v = viper.GetViper()
	}
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.applyDefaults()
	cfg.normalize(base)
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// InitDataDir creates the data directory structure.
//
// Structure created:
// .relay/
// ├── logs/       <- journey.log and relay.log
// └── snapshots/  <- timeline exports
func InitDataDir(dataDir string) error {
	dirs := []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, "snapshots"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	return nil
}

// LogsDir returns the path to the logs directory
func (c Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// JournalPath returns the path of the journey journal.
func (c Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "journey.log")
}

// SnapshotsDir returns the directory timeline exports are written to.
func (c Config) SnapshotsDir() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// UsesBuiltinStory reports whether no story file was configured.
func (c Config) UsesBuiltinStory() bool {
	return c.Story == ""
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DataDir
	}
	if c.LogLines == 0 {
		c.LogLines = defaultLogLines
	}
}

func (c *Config) normalize(base string) {
	c.Story = resolvePath(base, c.Story)
	c.DataDir = resolvePath(base, c.DataDir)
	if c.LogLines > maxLogLines {
		c.LogLines = maxLogLines
	}
}

func (c Config) validate() error {
	if c.LogLines < 0 {
		return fmt.Errorf("log_lines must be >= 0")
	}
	if c.Start < 0 {
		return fmt.Errorf("start must be >= 0")
	}
	if c.Watch && c.Story == "" {
		return fmt.Errorf("watch requires a story file")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) || base == "" {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}
