package tree

import "fmt"

// Check the structural invariants of the tree.
//
// Verifies parent links, that every payload is bound to a leaf,
// and that a tag bit on an edge is only set if the child holds a payload or one of its child edges carries the same bit.
// If requireBinary is true every node must have zero or two children.
//
// Returns an error wrapping ErrCorrupt describing the first violation found.
func (t *Tree[P]) Validate(requireBinary bool) error {
	var zero P
	var err error
	seen := 0
	var check func(id, parent NodeID, edge Edge)
	check = func(id, parent NodeID, edge Edge) {
		if err != nil {
			return
		}
		if !t.Alive(id) {
			err = fmt.Errorf("%w: edge to removed node %v", ErrCorrupt, id)
			return
		}
		seen++
		n := &t.nodes[id]
		if n.Parent != parent {
			err = fmt.Errorf("%w: node %v has parent %v, expected %v", ErrCorrupt, id, n.Parent, parent)
			return
		}
		children := 0
		if n.Left.Valid() {
			children++
		}
		if n.Right.Valid() {
			children++
		}
		if children > 0 && n.State != zero {
			err = fmt.Errorf("%w: fork point %v holds a payload", ErrCorrupt, id)
			return
		}
		if requireBinary && children == 1 {
			err = fmt.Errorf("%w: node %v has a single child", ErrCorrupt, id)
			return
		}
		if children > 0 {
			below := n.Left.Tags | n.Right.Tags
			if stray := edge.Tags &^ below; stray != 0 {
				err = fmt.Errorf("%w: edge to %v carries tags %b not carried by any child edge", ErrCorrupt, id, stray)
				return
			}
		} else if n.State == zero && edge.Tags != 0 {
			err = fmt.Errorf("%w: tagged leaf %v holds no payload", ErrCorrupt, id)
			return
		}
		if n.Left.Valid() {
			check(n.Left.Child, id, n.Left)
		}
		if n.Right.Valid() {
			check(n.Right.Child, id, n.Right)
		}
	}
	if t.root.Valid() {
		check(t.root.Child, Nil, t.root)
	}
	if err == nil && seen != t.size {
		err = fmt.Errorf("%w: %v nodes reachable, %v allocated", ErrCorrupt, seen, t.size)
	}
	return err
}

// Check that the consumer owning mask tags exactly the paths to the tracked leaves.
//
// Every edge from the root to a tracked leaf must carry the bit,
// and no other leaf may be reached by an edge carrying it.
// Together with Validate this means the bit is set on an edge iff the edge leads to a tracked leaf.
func (t *Tree[P]) ValidateTags(mask Tag, tracked []NodeID) error {
	want := make(map[NodeID]bool, len(tracked))
	for _, leaf := range tracked {
		if !t.Alive(leaf) {
			return fmt.Errorf("%w: tracked node %v is not in the tree", ErrCorrupt, leaf)
		}
		if !t.nodes[leaf].IsLeaf() {
			return fmt.Errorf("%w: tracked node %v is not a leaf", ErrCorrupt, leaf)
		}
		want[leaf] = true
		for id := leaf; id != Nil; id = t.nodes[id].Parent {
			if t.EdgeTo(id).Tags&mask == 0 {
				return fmt.Errorf("%w: edge to %v on the path to tracked leaf %v lacks tag %b", ErrCorrupt, id, leaf, mask)
			}
		}
	}

	var err error
	t.Walk(func(id NodeID, n *Node[P]) bool {
		if n.IsLeaf() && !want[id] && t.EdgeTo(id).Tags&mask != 0 {
			err = fmt.Errorf("%w: untracked leaf %v carries tag %b", ErrCorrupt, id, mask)
			return false
		}
		return true
	})
	return err
}
