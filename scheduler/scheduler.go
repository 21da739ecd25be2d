package scheduler

import (
	"errors"
	"fmt"

	"symsched/state"

	"golang.org/x/exp/slices"
)

// A Strategy decides which live execution state is advanced next.
//
// The interpreter drives a strategy by alternating calls to SelectState and Update.
// Calls are never concurrent.
// Composite strategies wrap other strategies through this interface.
type Strategy interface {
	// Returns a live state the strategy is responsible for.
	// Panics with ErrEmpty if called while Empty returns true.
	SelectState() state.State

	// Inform the strategy that advancing current made added live and removed no longer live.
	// current may be nil.
	// A removed state must previously have been added.
	Update(current state.State, added, removed []state.State)

	// Returns true if no live state remains
	Empty() bool

	// A diagnostic name
	Name() string
}

var (
	ErrEmpty        = errors.New("scheduler: no live states")
	ErrUnknownState = errors.New("scheduler: state is not tracked by the strategy")
	ErrNotOwned     = errors.New("scheduler: tree node is not owned by the strategy")
)

// Locate and erase s from states, keeping the order of the remaining states.
// Panics with ErrUnknownState if states does not contain s.
func eraseState(states []state.State, s state.State, name string) []state.State {
	index := slices.Index(states, s)
	if index == -1 {
		panic(fmt.Errorf("%w: %v removed state %v", ErrUnknownState, name, s))
	}
	return slices.Delete(states, index, index+1)
}

func contains(states []state.State, s state.State) bool {
	return slices.Contains(states, s)
}
