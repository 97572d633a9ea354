package story

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultStory []byte

// ParseYAML decodes a story definition from YAML/JSON bytes.
func ParseYAML(data []byte) (Definition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Definition{}, fmt.Errorf("story: definition payload is empty")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("story: decode definition: %w", err)
	}
	return def.Normalized()
}

// LoadReader reads story definition data from an io.Reader.
func LoadReader(r io.Reader) (Definition, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return Definition{}, fmt.Errorf("story: read definition: %w", err)
	}
	return ParseYAML(content)
}

// LoadFile loads a story definition from an explicit file path.
func LoadFile(path string) (Definition, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("story: read %s: %w", path, err)
	}
	def, parseErr := ParseYAML(content)
	if parseErr != nil {
		return Definition{}, fmt.Errorf("story: %s: %w", path, parseErr)
	}
	return def, nil
}

// Default returns the built-in journey.
func Default() (Definition, error) {
	return ParseYAML(defaultStory)
}

// Load returns the story at path, or the built-in journey when path is
// empty.
func Load(path string) (Definition, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}
