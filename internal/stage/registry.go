package stage

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned when an index falls outside [0, Count()-1].
	ErrOutOfRange = errors.New("stage: index out of range")
	// ErrFrozen is returned when registering after bootstrap has finished.
	ErrFrozen = errors.New("stage: registry is frozen")
)

// Registry is the ordered sequence of stages that make up a journey. It is
// append-only during bootstrap and read-only once frozen.
type Registry struct {
	stages []Stage
	index  map[string]int
	frozen bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register appends a stage. Returns an error for invalid or duplicate stages
// and once the registry is frozen.
func (r *Registry) Register(s Stage) error {
	if s == nil {
		return fmt.Errorf("stage: stage is required")
	}
	if r.frozen {
		return ErrFrozen
	}
	info := s.Info()
	if err := info.Validate(); err != nil {
		return err
	}
	if _, exists := r.index[info.ID]; exists {
		return fmt.Errorf("stage: %s already registered", info.ID)
	}
	r.index[info.ID] = len(r.stages)
	r.stages = append(r.stages, s)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(s Stage) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

// Freeze ends bootstrap. Further registrations fail with ErrFrozen.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether bootstrap has finished.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Get returns the stage at index.
func (r *Registry) Get(index int) (Stage, error) {
	if index < 0 || index >= len(r.stages) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, len(r.stages))
	}
	return r.stages[index], nil
}

// Count returns the number of registered stages.
func (r *Registry) Count() int {
	return len(r.stages)
}

// IndexOf resolves a stage id to its position.
func (r *Registry) IndexOf(id string) (int, bool) {
	idx, ok := r.index[id]
	return idx, ok
}

// Infos returns the identity of every stage in order.
func (r *Registry) Infos() []Info {
	infos := make([]Info, len(r.stages))
	for i, s := range r.stages {
		infos[i] = s.Info()
	}
	return infos
}
