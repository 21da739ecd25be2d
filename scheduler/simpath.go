package scheduler

import (
	"fmt"

	"symsched/rng"
	"symsched/state"
	"symsched/tree"
)

// A random path strategy for the states of rollouts.
//
// Keeps a stack of subtree roots, one per rollout nesting level.
// Selection walks the subtree of the innermost rollout and follows suspended states to the state simulating on their behalf.
type SimulationPath struct {
	tree   *tree.Tree[state.State]
	rand   rng.Source
	roots  []tree.NodeID
	states []state.State
}

// Create a new SimulationPath strategy over t
func NewSimulationPath(t *tree.Tree[state.State], src rng.Source) *SimulationPath {
	sp := &SimulationPath{
		tree:   t,
		rand:   src,
		roots:  make([]tree.NodeID, 0),
		states: make([]state.State, 0),
	}
	t.Observe(sp.replaceRoot)
	return sp
}

// Keep the stacked roots valid when the tree splices a node out
func (sp *SimulationPath) replaceRoot(old, replacement tree.NodeID) {
	for i, root := range sp.roots {
		if root == old {
			sp.roots[i] = replacement
		}
	}
}

func (sp *SimulationPath) SelectState() state.State {
	if len(sp.states) == 0 {
		panic(fmt.Errorf("%w: %v", ErrEmpty, sp.Name()))
	}
	if len(sp.states) == 1 {
		return sp.states[0]
	}
	if len(sp.roots) == 0 {
		panic(fmt.Errorf("%w: %v has states but no rollout root", ErrNotOwned, sp.Name()))
	}

	var flips uint32
	bits := 0
	id := sp.roots[len(sp.roots)-1]
	n := sp.tree.Node(id)
	for n.State == nil {
		switch {
		case !n.Left.Valid() && !n.Right.Valid():
			panic(fmt.Errorf("%w: %v reached empty leaf %v", tree.ErrCorrupt, sp.Name(), id))
		case !n.Left.Valid():
			id = n.Right.Child
		case !n.Right.Valid():
			id = n.Left.Child
		default:
			if bits == 0 {
				flips = sp.rand.Int32()
				bits = 32
			}
			bits--
			if flips&(1<<bits) != 0 {
				id = n.Left.Child
			} else {
				id = n.Right.Child
			}
		}
		n = sp.tree.Node(id)
	}

	s := n.State
	for s.Mode() == state.Suspended {
		s = s.SimulationState()
	}
	return s
}

// Push the node of an added state that opens a new rollout level as a root.
// Pop the innermost root when the state of that level hands control back.
func (sp *SimulationPath) Update(current state.State, added, removed []state.State) {
	for _, s := range added {
		if s.Level() > len(sp.roots) {
			sp.roots = append(sp.roots, s.Node())
		}
		sp.states = append(sp.states, s)
	}
	for _, s := range removed {
		if s.Resumed() && s.Level() == len(sp.roots) {
			sp.roots = sp.roots[:len(sp.roots)-1]
		}
		sp.states = eraseState(sp.states, s, sp.Name())
	}
}

func (sp *SimulationPath) Empty() bool {
	return len(sp.roots) == 0 && len(sp.states) == 0
}

func (sp *SimulationPath) Name() string {
	return "SimulationPath"
}
