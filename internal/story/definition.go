package story

import (
	"fmt"
	"strings"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/theme"
)

// StageDef declares one stage of a journey.
type StageDef struct {
	ID             string       `json:"id" yaml:"id"`
	Title          string       `json:"title" yaml:"title"`
	Kind           string       `json:"kind" yaml:"kind"`
	Content        string       `json:"content,omitempty" yaml:"content,omitempty"`
	StartsComplete bool         `json:"starts_complete,omitempty" yaml:"starts_complete,omitempty"`
	Params         stage.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// Spec converts the definition into the shape stage factories consume.
func (d StageDef) Spec() stage.Spec {
	return stage.Spec{
		ID:             d.ID,
		Title:          d.Title,
		Kind:           d.Kind,
		Content:        d.Content,
		StartsComplete: d.StartsComplete,
		Params:         d.Params.Clone(),
	}
}

// Validate ensures the stage definition is usable.
func (d StageDef) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("id is required")
	}
	if d.Title == "" {
		return fmt.Errorf("title is required for %s", d.ID)
	}
	if d.Kind == "" {
		return fmt.Errorf("kind is required for %s", d.ID)
	}
	return nil
}

// Definition declares a whole journey: its stages in order plus the theme
// partition over them.
type Definition struct {
	ID          string            `json:"id" yaml:"id"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Themes      theme.Buckets     `json:"themes,omitempty" yaml:"themes,omitempty"`
	Stages      []StageDef        `json:"stages" yaml:"stages"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the definition.
func (def Definition) Clone() Definition {
	clone := Definition{
		ID:          def.ID,
		Title:       def.Title,
		Description: def.Description,
		Themes:      def.Themes.Clone(),
	}
	if len(def.Metadata) > 0 {
		clone.Metadata = make(map[string]string, len(def.Metadata))
		for k, v := range def.Metadata {
			clone.Metadata[k] = v
		}
	}
	if len(def.Stages) > 0 {
		clone.Stages = make([]StageDef, len(def.Stages))
		for i, sd := range def.Stages {
			sd.Params = sd.Params.Clone()
			clone.Stages[i] = sd
		}
	}
	return clone
}

// Validate ensures the definition is self-consistent.
func (def Definition) Validate() error {
	if def.ID == "" {
		return fmt.Errorf("story: id is required")
	}
	if len(def.Stages) == 0 {
		return fmt.Errorf("story %s: at least one stage is required", def.ID)
	}
	seen := map[string]struct{}{}
	for idx, sd := range def.Stages {
		if err := sd.Validate(); err != nil {
			return fmt.Errorf("story %s stage[%d]: %w", def.ID, idx, err)
		}
		if _, exists := seen[sd.ID]; exists {
			return fmt.Errorf("story %s: duplicate stage id %s", def.ID, sd.ID)
		}
		seen[sd.ID] = struct{}{}
	}
	if err := def.Themes.Validate(len(def.Stages)); err != nil {
		return fmt.Errorf("story %s: %w", def.ID, err)
	}
	return nil
}

// Normalized trims identifiers, fills default themes and validates.
func (def Definition) Normalized() (Definition, error) {
	clone := def.Clone()
	clone.ID = strings.TrimSpace(clone.ID)
	clone.Title = strings.TrimSpace(clone.Title)
	if clone.Title == "" {
		clone.Title = clone.ID
	}
	for i := range clone.Stages {
		sd := &clone.Stages[i]
		sd.ID = strings.TrimSpace(sd.ID)
		sd.Title = strings.TrimSpace(sd.Title)
		sd.Kind = strings.ToLower(strings.TrimSpace(sd.Kind))
		sd.Content = strings.TrimSpace(sd.Content)
	}
	for i := range clone.Themes {
		clone.Themes[i].ID = strings.TrimSpace(clone.Themes[i].ID)
	}
	if len(clone.Themes) == 0 {
		clone.Themes = theme.Default(len(clone.Stages))
	}
	if err := clone.Validate(); err != nil {
		return Definition{}, err
	}
	return clone, nil
}

// Index returns the position of the stage with id.
func (def Definition) Index(id string) (int, bool) {
	for i, sd := range def.Stages {
		if sd.ID == id {
			return i, true
		}
	}
	return -1, false
}
