package scheduler

import (
	"fmt"

	"symsched/rng"
	"symsched/state"
	"symsched/tree"
)

// A strategy that walks the exploration tree from the root to a live leaf,
// flipping a coin at every fork point where both children are tracked.
//
// The probability of selecting a state is proportional to the shape of the tracked subtree,
// which biases the search towards shallow states.
// Each instance owns one tag bit of the tree and only follows edges carrying it,
// so several instances can share a tree.
type RandomPath struct {
	tree *tree.Tree[state.State]
	rand rng.Source
	mask tree.Tag
}

// Create a new RandomPath strategy.
// Allocates a tag from t, panicking if the tags of t are exhausted.
func NewRandomPath(t *tree.Tree[state.State], src rng.Source) *RandomPath {
	return &RandomPath{
		tree: t,
		rand: src,
		mask: t.AllocateTag(),
	}
}

// The tag bit owned by the strategy
func (rp *RandomPath) Tag() tree.Tag {
	return rp.mask
}

// Walk from the root to a leaf owned by the strategy.
// Random bits are drawn 32 at a time.
func (rp *RandomPath) SelectState() state.State {
	if !rp.tree.RootEdge().Owned(rp.mask) {
		panic(fmt.Errorf("%w: %v", ErrEmpty, rp.Name()))
	}
	var flips uint32
	bits := 0
	id := rp.tree.Root()
	n := rp.tree.Node(id)
	for n.State == nil {
		left, right := n.Left.Owned(rp.mask), n.Right.Owned(rp.mask)
		switch {
		case left && right:
			if bits == 0 {
				flips = rp.rand.Int32()
				bits = 32
			}
			bits--
			if flips&(1<<bits) != 0 {
				id = n.Left.Child
			} else {
				id = n.Right.Child
			}
		case left:
			id = n.Left.Child
		case right:
			id = n.Right.Child
		default:
			panic(fmt.Errorf("%w: %v reached node %v with no owned children", ErrNotOwned, rp.Name(), id))
		}
		n = rp.tree.Node(id)
	}
	return n.State
}

// Tag the paths to the added states and untag the paths that no longer lead to a tracked state.
func (rp *RandomPath) Update(current state.State, added, removed []state.State) {
	for _, s := range added {
		markPath(rp.tree, s.Node(), rp.mask)
	}
	for _, s := range removed {
		unmarkPath(rp.tree, s.Node(), rp.mask, rp.Name())
	}
}

func (rp *RandomPath) Empty() bool {
	return !rp.tree.RootEdge().Owned(rp.mask)
}

func (rp *RandomPath) Name() string {
	return "RandomPath"
}

// Set mask on the edges from id towards the root until an edge already carrying it is reached
func markPath[P tree.Payload](t *tree.Tree[P], id tree.NodeID, mask tree.Tag) {
	for id != tree.Nil {
		edge := t.EdgeTo(id)
		if edge.Tags&mask != 0 {
			return
		}
		edge.Tags |= mask
		id = t.Node(id).Parent
	}
}

// Clear mask on the edges from id towards the root while the node has no child edge carrying it.
// Panics with ErrNotOwned if an edge on the way does not carry the mask.
func unmarkPath[P tree.Payload](t *tree.Tree[P], id tree.NodeID, mask tree.Tag, name string) {
	for id != tree.Nil {
		n := t.Node(id)
		if n.Left.Owned(mask) || n.Right.Owned(mask) {
			return
		}
		edge := t.EdgeTo(id)
		if edge.Tags&mask == 0 {
			panic(fmt.Errorf("%w: %v removing node %v", ErrNotOwned, name, id))
		}
		edge.Tags &^= mask
		id = n.Parent
	}
}
