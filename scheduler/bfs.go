package scheduler

import (
	"fmt"

	"symsched/state"
)

// A strategy that always selects the oldest state.
//
// A state that forks is moved to the back of the queue,
// since it has evolved by producing new states.
type BFS struct {
	states []state.State
}

// Create a new breadth first strategy
func NewBFS() *BFS {
	return &BFS{
		states: make([]state.State, 0),
	}
}

// Returns the oldest state
func (b *BFS) SelectState() state.State {
	if len(b.states) == 0 {
		panic(fmt.Errorf("%w: %v", ErrEmpty, b.Name()))
	}
	return b.states[0]
}

// Move current to the back if it added states and is still live,
// then append the added states and erase the removed states.
// Panics with ErrUnknownState if a removed state, or a forking current state, is not tracked.
func (b *BFS) Update(current state.State, added, removed []state.State) {
	if len(added) > 0 && current != nil && !contains(removed, current) {
		b.states = eraseState(b.states, current, b.Name())
		b.states = append(b.states, current)
	}

	b.states = append(b.states, added...)

	for _, s := range removed {
		if len(b.states) > 0 && b.states[0] == s {
			b.states = b.states[1:]
			continue
		}
		b.states = eraseState(b.states, s, b.Name())
	}
}

func (b *BFS) Empty() bool {
	return len(b.states) == 0
}

func (b *BFS) Name() string {
	return "BFS"
}
