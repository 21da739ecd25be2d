package scheduler

import (
	"strings"

	"symsched/state"
)

// A strategy that takes turns selecting from several wrapped strategies.
//
// Every wrapped strategy observes every update, so they all track the same set of states.
type Interleaved struct {
	strategies []Strategy
	index      int
}

// Create a new Interleaved strategy. Panics if no strategy is provided.
func NewInterleaved(strategies ...Strategy) *Interleaved {
	if len(strategies) == 0 {
		panic("scheduler: interleaving requires at least one strategy")
	}
	return &Interleaved{
		strategies: strategies,
		index:      len(strategies),
	}
}

// Select from the next strategy. The strategies are visited from the last to the first, then wrap around
func (i *Interleaved) SelectState() state.State {
	i.index--
	s := i.strategies[i.index]
	if i.index == 0 {
		i.index = len(i.strategies)
	}
	return s.SelectState()
}

func (i *Interleaved) Update(current state.State, added, removed []state.State) {
	for _, s := range i.strategies {
		s.Update(current, added, removed)
	}
}

// All strategies track the same states, so the first one answers for all
func (i *Interleaved) Empty() bool {
	return i.strategies[0].Empty()
}

func (i *Interleaved) Name() string {
	names := make([]string, 0, len(i.strategies))
	for _, s := range i.strategies {
		names = append(names, s.Name())
	}
	return "Interleaved(" + strings.Join(names, ", ") + ")"
}
