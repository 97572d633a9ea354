package story

import (
	"fmt"

	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/theme"
)

// Build resolves every stage of def through kinds, registers them in order
// and freezes the registry. It is the only code that writes to a registry.
func Build(def Definition, kinds *stage.Kinds) (*stage.Registry, theme.Buckets, error) {
	if kinds == nil {
		return nil, nil, fmt.Errorf("story: kind catalogue is required")
	}
	normalized, err := def.Normalized()
	if err != nil {
		return nil, nil, err
	}
	reg := stage.NewRegistry()
	for idx, sd := range normalized.Stages {
		s, err := kinds.Resolve(sd.Spec())
		if err != nil {
			return nil, nil, fmt.Errorf("story %s stage[%d]: %w", normalized.ID, idx, err)
		}
		if err := reg.Register(s); err != nil {
			return nil, nil, fmt.Errorf("story %s stage[%d]: %w", normalized.ID, idx, err)
		}
	}
	reg.Freeze()
	return reg, normalized.Themes, nil
}
