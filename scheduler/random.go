package scheduler

import (
	"fmt"

	"symsched/rng"
	"symsched/state"

	"golang.org/x/exp/slices"
)

// A strategy that selects a live state uniformly at random.
//
// It provides no ordering guarantees, but it generally spreads the exploration over the state space
// better than the deterministic strategies when the state space is too large to be searched exhaustively.
type Random struct {
	states []state.State
	rand   rng.Source
}

// Create a new Random strategy drawing from src
func NewRandom(src rng.Source) *Random {
	return &Random{
		states: make([]state.State, 0),
		rand:   src,
	}
}

// Returns a uniformly drawn live state
func (r *Random) SelectState() state.State {
	if len(r.states) == 0 {
		panic(fmt.Errorf("%w: %v", ErrEmpty, r.Name()))
	}
	return r.states[int(r.rand.Int32()%uint32(len(r.states)))]
}

func (r *Random) Update(current state.State, added, removed []state.State) {
	r.states = append(r.states, added...)

	for _, s := range removed {
		index := slices.Index(r.states, s)
		if index == -1 {
			panic(fmt.Errorf("%w: %v removed state %v", ErrUnknownState, r.Name(), s))
		}
		// Since we are drawing randomly the ordering does not matter.
		// Swap with the last element instead of moving all elements after the removed one.
		r.states[index] = r.states[len(r.states)-1]
		r.states = r.states[:len(r.states)-1]
	}
}

func (r *Random) Empty() bool {
	return len(r.states) == 0
}

func (r *Random) Name() string {
	return "RandomState"
}
