package scheduler

import (
	"fmt"

	"symsched/state"
)

// A strategy that always selects the most recently added state.
type DFS struct {
	states []state.State
}

// Create a new depth first strategy
func NewDFS() *DFS {
	return &DFS{
		states: make([]state.State, 0),
	}
}

// Returns the most recently added state
func (d *DFS) SelectState() state.State {
	if len(d.states) == 0 {
		panic(fmt.Errorf("%w: %v", ErrEmpty, d.Name()))
	}
	return d.states[len(d.states)-1]
}

// Append the added states and erase the removed states.
// Panics with ErrUnknownState if a removed state is not tracked.
func (d *DFS) Update(current state.State, added, removed []state.State) {
	d.states = append(d.states, added...)

	for _, s := range removed {
		if n := len(d.states); n > 0 && d.states[n-1] == s {
			d.states = d.states[:n-1]
			continue
		}
		d.states = eraseState(d.states, s, d.Name())
	}
}

func (d *DFS) Empty() bool {
	return len(d.states) == 0
}

func (d *DFS) Name() string {
	return "DFS"
}
