package scheduler

import (
	"math"
	"testing"
	"time"

	"symsched/rng"
	"symsched/state"
)

type fakeStatistics struct {
	instructions map[state.ID]uint64
	queryCost    map[state.ID]time.Duration
	md2u         map[state.ID]uint64
	sinceCovNew  map[state.ID]uint64
}

func newFakeStatistics() *fakeStatistics {
	return &fakeStatistics{
		instructions: map[state.ID]uint64{},
		queryCost:    map[state.ID]time.Duration{},
		md2u:         map[state.ID]uint64{},
		sinceCovNew:  map[state.ID]uint64{},
	}
}

func (f *fakeStatistics) InstructionsAt(s state.State) uint64 { return f.instructions[s.ID()] }
func (f *fakeStatistics) CallPathInstructions(s state.State) uint64 {
	return f.instructions[s.ID()]
}
func (f *fakeStatistics) QueryCost(s state.State) time.Duration   { return f.queryCost[s.ID()] }
func (f *fakeStatistics) MinDistToUncovered(s state.State) uint64 { return f.md2u[s.ID()] }
func (f *fakeStatistics) InstructionsSinceCoveringNew(s state.State) uint64 {
	return f.sinceCovNew[s.ID()]
}

func TestWeightedRandomConverges(t *testing.T) {
	states := newStates(2)
	stats := newFakeStatistics()
	stats.instructions[0] = 1
	stats.instructions[1] = 2

	w := NewWeightedRandom(InstCount, rng.New(7), stats)
	w.Update(nil, states, nil)

	const draws = 20000
	first := 0
	for i := 0; i < draws; i++ {
		if w.SelectState() == states[0] {
			first++
		}
	}
	// Weights are 1 and 0.25
	if ratio := float64(first) / draws; math.Abs(ratio-0.8) > 0.02 {
		t.Errorf("Expected the first state to be selected about 80%% of the time. Got: %v", ratio)
	}
}

func TestWeightedRandomRecomputesCurrent(t *testing.T) {
	states := newStates(2)
	stats := newFakeStatistics()
	stats.instructions[0] = 1
	stats.instructions[1] = 1

	w := NewWeightedRandom(InstCount, rng.NewSequence(nil, []float64{0.4}), stats)
	w.Update(nil, states, nil)
	if got := w.SelectState(); got != states[0] {
		t.Fatalf("Expected the first state. Got: %v", got)
	}

	stats.instructions[0] = 1000
	w.Update(states[0], nil, nil)
	if got := w.SelectState(); got != states[1] {
		t.Errorf("Expected the weight of the current state to drop. Got: %v", got)
	}
}

func TestWeightedRandomWeights(t *testing.T) {
	deep := state.New(1, "entry")
	for i := 0; i < 3; i++ {
		deep.Fork(state.ID(10 + i))
	}
	stats := newFakeStatistics()
	stats.queryCost[1] = 2 * time.Second
	stats.md2u[1] = 4
	stats.sinceCovNew[1] = 1010

	tests := []struct {
		kind WeightKind
		want float64
	}{
		{Depth, 3},
		{RP, 0.125},
		{QueryCost, 0.5},
		{MinDistToUncovered, 1.0 / 16},
		{CoveringNew, 1.0/100 + 1.0/16},
	}
	for _, test := range tests {
		w := NewWeightedRandom(test.kind, rng.New(1), stats)
		if got := w.weight(deep); math.Abs(got-test.want) > 1e-12 {
			t.Errorf("%v: expected weight %v. Got: %v", test.kind, test.want, got)
		}
	}
}

func TestWeightedRandomRequiresStatistics(t *testing.T) {
	expectPanic(t, nil, func() { NewWeightedRandom(InstCount, rng.New(1), nil) })
	NewWeightedRandom(Depth, rng.New(1), nil)
}
