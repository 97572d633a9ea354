// Package engine owns the journey's mutable state: the frozen stage
// registry, the completion tracker, the current index, and the scope of the
// structure currently on screen. An Orchestrator is the only writer; stages
// reach it through the completion mutator in their stage.Binding.
package engine
