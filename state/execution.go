package state

import (
	"fmt"

	"symsched/tree"
)

// The default implementation of State used by the simulator.
type Execution struct {
	id      ID
	depth   int
	mode    Mode
	level   int
	block   string
	resumed bool
	node    tree.NodeID

	// The state running a rollout on behalf of this state
	simulation *Execution
	// The state this rollout state was spawned from
	origin *Execution

	Metrics Metrics
}

// Create a new initial state at block
func New(id ID, block string) *Execution {
	return &Execution{
		id:    id,
		block: block,
		node:  tree.Nil,
	}
}

// Create a copy of the state representing the other side of a fork.
// Both states have their depth increased.
func (e *Execution) Fork(id ID) *Execution {
	e.depth++
	return &Execution{
		id:      id,
		depth:   e.depth,
		mode:    e.mode,
		level:   e.level,
		block:   e.block,
		node:    tree.Nil,
		origin:  e.origin,
		Metrics: e.Metrics,
	}
}

// Create a simulation state running a rollout on behalf of e.
// e is suspended until Resume is called.
func (e *Execution) Spawn(id ID) *Execution {
	sim := &Execution{
		id:      id,
		depth:   e.depth,
		mode:    Simulation,
		level:   e.level + 1,
		block:   e.block,
		node:    tree.Nil,
		origin:  e,
		Metrics: e.Metrics,
	}
	e.mode = Suspended
	e.simulation = sim
	return sim
}

// Suspend the state without attaching a simulation state
func (e *Execution) Suspend() {
	e.mode = Suspended
}

// Return a suspended state to the mode it had before the rollout.
func (e *Execution) Resume() {
	if e.level > 0 {
		e.mode = Simulation
	} else {
		e.mode = Normal
	}
	e.simulation = nil
	e.resumed = true
}

// Mark a simulation state as handing control back to the state it was spawned from
func (e *Execution) MarkResumed() {
	e.resumed = true
}

// The state the rollout state was spawned from. nil for normal states
func (e *Execution) Origin() *Execution {
	return e.origin
}

func (e *Execution) Goto(block string) {
	e.block = block
}

func (e *Execution) ID() ID                 { return e.id }
func (e *Execution) Depth() int             { return e.depth }
func (e *Execution) Mode() Mode             { return e.mode }
func (e *Execution) Level() int             { return e.level }
func (e *Execution) Block() string          { return e.block }
func (e *Execution) Resumed() bool          { return e.resumed }
func (e *Execution) Node() tree.NodeID      { return e.node }
func (e *Execution) SetNode(id tree.NodeID) { e.node = id }

func (e *Execution) SimulationState() State {
	if e.simulation == nil {
		return nil
	}
	return e.simulation
}

func (e *Execution) String() string {
	return fmt.Sprintf("%d@%s", e.id, e.block)
}
