package state

import (
	"fmt"
	"time"

	"symsched/tree"
)

// The scheduling mode of an execution state
type Mode uint8

const (
	// A state explored by the normal search
	Normal Mode = iota
	// A state handed to a rollout. It is excluded from the normal search until it is resumed or terminated
	Suspended
	// A state created by a rollout
	Simulation
)

func (m Mode) String() string {
	switch m {
	case Normal:
		return "normal"
	case Suspended:
		return "suspended"
	case Simulation:
		return "simulation"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// An id that uniquely identifies an execution state during an exploration
type ID uint64

// An execution state is a handle to one point in the forked state space of the program.
//
// The scheduler only reads the state. The interpreter owns it and is responsible for changing it.
type State interface {
	ID() ID
	// The number of forks on the path from the initial state
	Depth() int
	Mode() Mode
	// The rollout nesting level. 0 for normal states, 1 for states created by a rollout of a normal state
	Level() int
	// The name of the basic block at the program counter of the state
	Block() string
	// True if a rollout of the state has completed
	Resumed() bool
	// The state running a rollout on behalf of a suspended state. nil if the state is not suspended
	SimulationState() State

	// The tree node currently occupied by the state
	Node() tree.NodeID
	SetNode(tree.NodeID)
}

// Cost metrics collected by the interpreter for a single state
type Metrics struct {
	// Instructions executed on the path of the state
	Instructions uint64
	// Time spent solving the constraints of the state
	QueryCost time.Duration
	// Instructions executed since the state last covered a new block
	InstsSinceCovNew uint64
}
