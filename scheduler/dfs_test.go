package scheduler

import (
	"testing"

	"symsched/state"

	"github.com/google/go-cmp/cmp"
)

func TestDFSSelectsMostRecent(t *testing.T) {
	states := newStates(3)
	dfs := NewDFS()
	dfs.Update(nil, states, nil)

	if got := dfs.SelectState(); got != states[2] {
		t.Errorf("Expected the most recently added state. Got: %v", got)
	}

	got := drain(dfs)
	want := []state.ID{2, 1, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected selection order (-want +got):\n%s", diff)
	}
}

func TestDFSRemoveFromMiddle(t *testing.T) {
	states := newStates(4)
	dfs := NewDFS()
	dfs.Update(nil, states, nil)
	dfs.Update(nil, nil, []state.State{states[1]})

	got := drain(dfs)
	want := []state.ID{3, 2, 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unexpected selection order (-want +got):\n%s", diff)
	}
}

func TestDFSEmpty(t *testing.T) {
	dfs := NewDFS()
	if !dfs.Empty() {
		t.Errorf("Expected a new strategy to be empty")
	}
	expectPanic(t, ErrEmpty, func() { dfs.SelectState() })
	expectPanic(t, ErrUnknownState, func() { dfs.Update(nil, nil, newStates(1)) })
}
