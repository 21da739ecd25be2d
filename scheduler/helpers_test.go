package scheduler

import (
	"errors"
	"testing"
	"time"

	"symsched/state"
	"symsched/tree"
)

func newStates(n int) []state.State {
	states := make([]state.State, n)
	for i := range states {
		states[i] = state.New(state.ID(i), "entry")
	}
	return states
}

func ids(states []state.State) []state.ID {
	out := make([]state.ID, len(states))
	for i, s := range states {
		out[i] = s.ID()
	}
	return out
}

// Drain the strategy by repeatedly selecting and removing a state
func drain(s Strategy) []state.ID {
	order := []state.ID{}
	for !s.Empty() {
		next := s.SelectState()
		order = append(order, next.ID())
		s.Update(next, nil, []state.State{next})
	}
	return order
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("Expected a panic")
		}
		if target == nil {
			return
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("Expected panic with %v. Got: %v", target, r)
		}
	}()
	fn()
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fakeCounter struct {
	instructions uint64
}

func (c *fakeCounter) Instructions() uint64 {
	return c.instructions
}

// A tree with a single initial state at the root
func newTree(compact bool) (*tree.Tree[state.State], *state.Execution) {
	initial := state.New(0, "entry")
	return tree.New[state.State](initial, tree.DefaultWidth, compact), initial
}

// Fork s in the tree, returning the new state on the left
func fork(t *tree.Tree[state.State], s *state.Execution, id state.ID) *state.Execution {
	n := s.Fork(id)
	t.Attach(s.Node(), n, s)
	return n
}
