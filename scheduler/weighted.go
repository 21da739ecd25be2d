package scheduler

import (
	"fmt"
	"math"
	"time"

	"symsched/rng"
	"symsched/state"
)

// Per state statistics collected by the interpreter
type Statistics interface {
	// Instructions executed by all states at the program point of s
	InstructionsAt(s state.State) uint64
	// Instructions executed along the call path of s
	CallPathInstructions(s state.State) uint64
	// Time spent solving the queries of s
	QueryCost(s state.State) time.Duration
	// Distance from s to the closest uncovered block. 0 if unknown
	MinDistToUncovered(s state.State) uint64
	// Instructions executed by s since it last covered a new block
	InstructionsSinceCoveringNew(s state.State) uint64
}

// Selects how WeightedRandom weighs the states
type WeightKind int

const (
	Depth WeightKind = iota
	RP
	InstCount
	CPInstCount
	QueryCost
	MinDistToUncovered
	CoveringNew
)

func (k WeightKind) String() string {
	switch k {
	case Depth:
		return "Depth"
	case RP:
		return "RandomPath"
	case InstCount:
		return "InstCount"
	case CPInstCount:
		return "CPInstCount"
	case QueryCost:
		return "QueryCost"
	case MinDistToUncovered:
		return "MinDistToUncovered"
	case CoveringNew:
		return "CoveringNew"
	default:
		return "<unknown type>"
	}
}

// A strategy that selects states at random with a probability proportional to their weight.
type WeightedRandom struct {
	states *discretePDF[state.State]
	rand   rng.Source
	stats  Statistics
	kind   WeightKind

	// If true the weight of the current state is recomputed on every update
	updateWeights bool
}

// Create a new WeightedRandom strategy.
//
// stats may be nil for the Depth and RP kinds, which only use the depth of the state.
func NewWeightedRandom(kind WeightKind, src rng.Source, stats Statistics) *WeightedRandom {
	w := &WeightedRandom{
		states: newDiscretePDF[state.State](),
		rand:   src,
		stats:  stats,
		kind:   kind,
	}
	switch kind {
	case Depth, RP:
		w.updateWeights = false
	case InstCount, CPInstCount, QueryCost, MinDistToUncovered, CoveringNew:
		if stats == nil {
			panic(fmt.Errorf("scheduler: weight %v requires statistics", kind))
		}
		w.updateWeights = true
	default:
		panic(fmt.Errorf("scheduler: invalid weight type %d", int(kind)))
	}
	return w
}

func (w *WeightedRandom) weight(s state.State) float64 {
	switch w.kind {
	case RP:
		return math.Pow(0.5, float64(s.Depth()))
	case InstCount:
		inv := 1 / float64(max(1, w.stats.InstructionsAt(s)))
		return inv * inv
	case CPInstCount:
		return 1 / float64(max(1, w.stats.CallPathInstructions(s)))
	case QueryCost:
		cost := w.stats.QueryCost(s).Seconds()
		if cost < .1 {
			return 1
		}
		return 1 / cost
	case MinDistToUncovered, CoveringNew:
		md2u := w.stats.MinDistToUncovered(s)
		if md2u == 0 {
			md2u = 10000
		}
		invMD2U := 1 / float64(md2u)
		if w.kind == MinDistToUncovered {
			return invMD2U * invMD2U
		}
		invCovNew := 0.
		if since := w.stats.InstructionsSinceCoveringNew(s); since > 0 {
			invCovNew = 1 / float64(max(1, int64(since)-1000))
		}
		return invCovNew*invCovNew + invMD2U*invMD2U
	default:
		return float64(s.Depth())
	}
}

// Returns a state drawn with probability proportional to its weight
func (w *WeightedRandom) SelectState() state.State {
	if w.states.empty() {
		panic(fmt.Errorf("%w: %v", ErrEmpty, w.Name()))
	}
	return w.states.choose(w.rand.Float64())
}

// Recompute the weight of current if the weight kind depends on the progress of the state,
// then insert the added and remove the removed states.
func (w *WeightedRandom) Update(current state.State, added, removed []state.State) {
	if current != nil && w.updateWeights && !contains(removed, current) {
		w.states.update(current, w.weight(current))
	}
	for _, s := range added {
		w.states.insert(s, w.weight(s))
	}
	for _, s := range removed {
		w.states.remove(s)
	}
}

func (w *WeightedRandom) Empty() bool {
	return w.states.empty()
}

func (w *WeightedRandom) Name() string {
	return "WeightedRandom::" + w.kind.String()
}
