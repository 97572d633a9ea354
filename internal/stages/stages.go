// Package stages wires the built-in stage kinds into a catalogue.
package stages

import (
	"github.com/kingrea/relay/internal/stage"
	"github.com/kingrea/relay/internal/stages/chat"
	"github.com/kingrea/relay/internal/stages/countdown"
	"github.com/kingrea/relay/internal/stages/morse"
	"github.com/kingrea/relay/internal/stages/passage"
	"github.com/kingrea/relay/internal/stages/quiz"
	"github.com/kingrea/relay/internal/stages/search"
	"github.com/kingrea/relay/internal/stages/sequence"
	"github.com/kingrea/relay/internal/stages/terminal"
	"github.com/kingrea/relay/internal/stages/transcribe"
)

// RegisterBuiltins installs all of the built-in stage kinds into the
// provided catalogue.
func RegisterBuiltins(kinds *stage.Kinds) {
	if kinds == nil {
		return
	}
	passage.Register(kinds)
	quiz.Register(kinds)
	sequence.Register(kinds)
	countdown.Register(kinds)
	transcribe.Register(kinds)
	morse.Register(kinds)
	terminal.Register(kinds)
	search.Register(kinds)
	chat.Register(kinds)
}

// Builtins returns a fresh catalogue holding every built-in kind.
func Builtins() *stage.Kinds {
	kinds := stage.NewKinds()
	RegisterBuiltins(kinds)
	return kinds
}
