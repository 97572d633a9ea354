package engine

import (
	"time"

	"github.com/kingrea/relay/internal/theme"
)

// StageStatus is the per-stage entry of a snapshot.
type StageStatus struct {
	Index     int    `json:"index"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Theme     string `json:"theme"`
	Completed bool   `json:"completed"`
	Current   bool   `json:"current,omitempty"`
}

// State is a point-in-time, serialisable view of a journey.
type State struct {
	Session   string        `json:"session,omitempty"`
	Current   int           `json:"current"`
	Count     int           `json:"count"`
	Done      int           `json:"done"`
	Theme     theme.Bucket  `json:"theme"`
	Themes    theme.Buckets `json:"themes"`
	Stages    []StageStatus `json:"stages"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Snapshot captures the orchestrator state for exporters and the CLI.
func (o *Orchestrator) Snapshot() State {
	infos := o.registry.Infos()
	stages := make([]StageStatus, len(infos))
	for i, info := range infos {
		bucket, _ := o.buckets.Select(i)
		stages[i] = StageStatus{
			Index:     i,
			ID:        info.ID,
			Title:     info.Title,
			Kind:      info.Kind,
			Theme:     bucket.ID,
			Completed: o.tracker.Completed(i),
			Current:   i == o.current,
		}
	}
	current, _ := o.buckets.Select(o.current)
	return State{
		Session:   o.session,
		Current:   o.current,
		Count:     len(infos),
		Done:      o.tracker.Done(),
		Theme:     current,
		Themes:    o.buckets.Clone(),
		Stages:    stages,
		UpdatedAt: o.clock().UTC(),
	}
}

// CurrentStage returns the status entry of the displayed stage.
func (s State) CurrentStage() (StageStatus, bool) {
	if s.Current < 0 || s.Current >= len(s.Stages) {
		return StageStatus{}, false
	}
	return s.Stages[s.Current], true
}
