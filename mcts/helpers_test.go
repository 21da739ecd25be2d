package mcts

import (
	"errors"
	"testing"

	"symsched/rng"
	"symsched/state"
	"symsched/tree"
)

type fakeInterpreter struct {
	rewards map[state.ID]float64
	err     error

	suspended  []state.State
	resumed    []state.State
	terminated []state.State
}

func newFakeInterpreter() *fakeInterpreter {
	return &fakeInterpreter{rewards: map[state.ID]float64{}}
}

func (f *fakeInterpreter) SuspendState(s state.State)   { f.suspended = append(f.suspended, s) }
func (f *fakeInterpreter) ResumeState(s state.State)    { f.resumed = append(f.resumed, s) }
func (f *fakeInterpreter) TerminateState(s state.State) { f.terminated = append(f.terminated, s) }

func (f *fakeInterpreter) StartRollout(s state.State) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.rewards[s.ID()], nil
}

type fakeOracle struct {
	left, right []string
	ok          bool
	unsafe      map[string]int
	calls       map[string]int
}

func (f *fakeOracle) BranchBlocks(left, right state.State) ([]string, []string, bool) {
	return f.left, f.right, f.ok
}

func (f *fakeOracle) UnsafeOperations(block string) int {
	f.calls[block]++
	return f.unsafe[block]
}

type harness struct {
	tree     *tree.Tree[state.State]
	searcher *Searcher
	interp   *fakeInterpreter
	initial  *state.Execution
}

func newHarness(compact bool, oracle Oracle, cfg Config, ints ...uint32) *harness {
	initial := state.New(0, "entry")
	t := tree.New[state.State](initial, tree.DefaultWidth, compact)
	interp := newFakeInterpreter()
	h := &harness{
		tree:     t,
		interp:   interp,
		initial:  initial,
		searcher: New(t, interp, oracle, rng.NewSequence(ints, nil), cfg, nil),
	}
	h.searcher.Update(nil, []state.State{initial}, nil)
	return h
}

// Fork s, reporting the new state to the searcher
func (h *harness) fork(s *state.Execution, id state.ID, block string) *state.Execution {
	n := s.Fork(id)
	n.Goto(block)
	h.tree.Attach(s.Node(), n, s)
	h.searcher.Update(s, []state.State{n}, nil)
	return n
}

func (h *harness) remove(s state.State) {
	h.searcher.Update(nil, nil, []state.State{s})
	h.tree.Remove(s.Node())
}

func (h *harness) node(s state.State) *tree.Node[state.State] {
	return h.tree.Node(s.Node())
}

func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("Expected a panic")
		}
		if err, ok := r.(error); !ok || !errors.Is(err, target) {
			t.Fatalf("Expected panic with %v. Got: %v", target, r)
		}
	}()
	fn()
}
