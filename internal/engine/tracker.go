package engine

import "github.com/kingrea/relay/internal/stage"

// Tracker records the per-stage completion flags. Flags only ever move from
// false to true.
type Tracker struct {
	completed []bool
}

// NewTracker seeds one flag per stage from Info.StartsComplete.
func NewTracker(infos []stage.Info) *Tracker {
	flags := make([]bool, len(infos))
	for i, info := range infos {
		flags[i] = info.StartsComplete
	}
	return &Tracker{completed: flags}
}

// Set flips the flag at index and reports whether it changed.
func (t *Tracker) Set(index int) bool {
	if index < 0 || index >= len(t.completed) || t.completed[index] {
		return false
	}
	t.completed[index] = true
	return true
}

// Completed reads the raw flag. Out-of-range indices are never complete.
func (t *Tracker) Completed(index int) bool {
	if index < 0 || index >= len(t.completed) {
		return false
	}
	return t.completed[index]
}

// Count returns the number of tracked stages.
func (t *Tracker) Count() int {
	return len(t.completed)
}

// Done returns how many stages are complete.
func (t *Tracker) Done() int {
	n := 0
	for _, flag := range t.completed {
		if flag {
			n++
		}
	}
	return n
}
