package stage

import (
	"fmt"
	"sort"
	"sync"
)

// Spec is the declarative description of one stage, as written in a story
// definition. Content is opaque markdown; Params are opaque to the engine
// and interpreted by the kind's factory.
type Spec struct {
	ID             string
	Title          string
	Kind           string
	Content        string
	StartsComplete bool
	Params         Params
}

// Factory constructs a stage from its spec.
type Factory func(Spec) (Stage, error)

// Kinds maintains known stage factories keyed by kind.
type Kinds struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewKinds returns an empty catalogue.
func NewKinds() *Kinds {
	return &Kinds{factories: map[string]Factory{}}
}

// Register installs a factory. Returns an error if the kind already exists.
func (k *Kinds) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("stage: kind is required")
	}
	if factory == nil {
		return fmt.Errorf("stage: factory is required for %s", kind)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.factories[kind]; exists {
		return fmt.Errorf("stage: kind %s already registered", kind)
	}
	k.factories[kind] = factory
	return nil
}

// MustRegister panics if registration fails.
func (k *Kinds) MustRegister(kind string, factory Factory) {
	if err := k.Register(kind, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a stage from spec using the factory for spec.Kind.
func (k *Kinds) Resolve(spec Spec) (Stage, error) {
	k.mu.RLock()
	factory, ok := k.factories[spec.Kind]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("stage: unknown kind %q for %s", spec.Kind, spec.ID)
	}
	s, err := factory(spec)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", spec.ID, err)
	}
	if s == nil {
		return nil, fmt.Errorf("stage %s: factory returned nil", spec.ID)
	}
	if err := s.Info().Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Names returns a sorted list of registered kinds.
func (k *Kinds) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.factories))
	for name := range k.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
