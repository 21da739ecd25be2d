package tree

import (
	"errors"
	"fmt"
)

// The index of a node in the arena of a Tree.
// Indices are stable for the lifetime of the node and are reused after the node is removed.
type NodeID int32

// Nil is the NodeID of a missing node.
const Nil NodeID = -1

// A bitmask recording which registered consumers track an edge.
type Tag uint8

const (
	// The tag width used when none is provided.
	DefaultWidth = 3
	// The maximal tag width supported by a Tag.
	MaxWidth = 8
)

var (
	ErrNotLeaf       = errors.New("tree: node is not a leaf")
	ErrNotCurrent    = errors.New("tree: attach requires the right state to occupy the node")
	ErrHasChildren   = errors.New("tree: cannot remove a node with children")
	ErrTagsExhausted = errors.New("tree: no more consumer tags available")
	ErrCorrupt       = errors.New("tree: corrupt tree")
)

// A payload stored at the leaves of the tree.
//
// The tree binds a payload to the node it occupies by calling SetNode.
// A payload that is removed from the tree is bound to Nil.
type Payload interface {
	comparable
	SetNode(NodeID)
}

// An owning reference to a child node together with the tags of the consumers tracking it.
type Edge struct {
	Child NodeID
	Tags  Tag
}

// Returns true if the edge points to a node.
func (e Edge) Valid() bool {
	return e.Child != Nil
}

// Returns true if the edge points to a node and carries at least one of the bits in mask.
func (e Edge) Owned(mask Tag) bool {
	return e.Child != Nil && e.Tags&mask != 0
}

// Bookkeeping used by the reward guided searcher
type SearchInfo struct {
	Terminal     bool
	InSearchTree bool
	Forked       bool
	RolledOut    bool
	Visits       uint32
	Reward       float64
}

type Node[P Payload] struct {
	Parent NodeID
	Left   Edge
	Right  Edge
	// The payload occupying the node. The zero value if the node holds no payload
	State  P
	Search SearchInfo

	alive bool
}

// Returns true if the node has no children
func (n *Node[P]) IsLeaf() bool {
	return !n.Left.Valid() && !n.Right.Valid()
}

// The exploration tree.
//
// Records every fork as a node with two children.
// Each edge carries a tag bitmask that lets several consumers track their own subset of the leaves.
// Nodes are stored in an arena and addressed by NodeID.
// Pointers returned by Node are only valid until the next call to Attach, Split or Remove.
//
// The tree is not safe for concurrent use.
type Tree[P Payload] struct {
	nodes []Node[P]
	free  []NodeID

	root Edge

	width      int
	registered int
	compact    bool
	changed    bool
	size       int

	observers []func(old, replacement NodeID)
}

// Create a new tree with a single root node holding initial.
//
// width is the number of consumer tags that can be allocated, between 1 and MaxWidth.
// If compact is true, nodes left with a single child after a removal are spliced out.
func New[P Payload](initial P, width int, compact bool) *Tree[P] {
	if width <= 0 || width > MaxWidth {
		panic(fmt.Errorf("%w: tag width %v outside [1, %v]", ErrTagsExhausted, width, MaxWidth))
	}
	t := &Tree[P]{
		width:   width,
		compact: compact,
	}
	t.root = Edge{Child: t.newNode(Nil, initial)}
	return t
}

func (t *Tree[P]) newNode(parent NodeID, payload P) NodeID {
	var id NodeID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		id = NodeID(len(t.nodes))
		t.nodes = append(t.nodes, Node[P]{})
	}
	t.nodes[id] = Node[P]{
		Parent: parent,
		Left:   Edge{Child: Nil},
		Right:  Edge{Child: Nil},
		State:  payload,
		alive:  true,
	}
	var zero P
	if payload != zero {
		payload.SetNode(id)
	}
	t.size++
	return id
}

func (t *Tree[P]) deleteNode(id NodeID) {
	var zero P
	n := &t.nodes[id]
	if n.State != zero {
		n.State.SetNode(Nil)
	}
	t.nodes[id] = Node[P]{Parent: Nil, Left: Edge{Child: Nil}, Right: Edge{Child: Nil}}
	t.free = append(t.free, id)
	t.size--
}

// Register a function that is called whenever a node is spliced out of the tree by compaction.
// old is the removed node and replacement the child that took its place.
func (t *Tree[P]) Observe(fn func(old, replacement NodeID)) {
	t.observers = append(t.observers, fn)
}

// Returns the root node, or Nil if every node has been removed
func (t *Tree[P]) Root() NodeID {
	return t.root.Child
}

// Returns the edge pointing to the root
func (t *Tree[P]) RootEdge() Edge {
	return t.root
}

// Returns the number of nodes in the tree
func (t *Tree[P]) Len() int {
	return t.size
}

// Returns true if id refers to a node currently in the tree
func (t *Tree[P]) Alive(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes) && t.nodes[id].alive
}

// Returns the node with the provided id.
// Panics if the node is not in the tree.
func (t *Tree[P]) Node(id NodeID) *Node[P] {
	if !t.Alive(id) {
		panic(fmt.Errorf("%w: node %v is not in the tree", ErrCorrupt, id))
	}
	return &t.nodes[id]
}

// Returns the edge that points to id. Either the edge of the parent or the root edge.
func (t *Tree[P]) EdgeTo(id NodeID) *Edge {
	parent := t.Node(id).Parent
	if parent == Nil {
		return &t.root
	}
	p := &t.nodes[parent]
	if p.Left.Child == id {
		return &p.Left
	}
	if p.Right.Child != id {
		panic(fmt.Errorf("%w: node %v is not a child of its parent %v", ErrCorrupt, id, parent))
	}
	return &p.Right
}

// Returns the next unused one-hot consumer tag.
// Panics once the tag width of the tree is exhausted.
func (t *Tree[P]) AllocateTag() Tag {
	if t.registered >= t.width {
		panic(fmt.Errorf("%w: the tree supports at most %v consumers", ErrTagsExhausted, t.width))
	}
	tag := Tag(1) << t.registered
	t.registered++
	return tag
}

// Fork the leaf node into two children.
//
// node must be a leaf occupied by right, the state that continues the execution.
// The left child holds left and starts untagged.
// The right child holds right and inherits the tags of the edge pointing to node,
// so consumers already tracking the path keep tracking the continuing state.
//
// Returns the ids of the left and right child.
func (t *Tree[P]) Attach(node NodeID, left, right P) (NodeID, NodeID) {
	n := t.Node(node)
	if !n.IsLeaf() {
		panic(fmt.Errorf("%w: attach on node %v", ErrNotLeaf, node))
	}
	if n.State != right {
		panic(fmt.Errorf("%w: node %v", ErrNotCurrent, node))
	}
	inherited := t.EdgeTo(node).Tags

	n.State = *new(P)
	l := t.newNode(node, left)
	r := t.newNode(node, right)

	n = &t.nodes[node]
	n.Left = Edge{Child: l}
	n.Right = Edge{Child: r, Tags: inherited}
	n.Search.Forked = true
	return l, r
}

// Fork the leaf node into two children holding the provided payloads.
//
// Unlike Attach the payloads are not required to occupy node and both new edges start untagged.
// Marks the tree as changed.
func (t *Tree[P]) Split(node NodeID, left, right P) (NodeID, NodeID) {
	n := t.Node(node)
	if !n.IsLeaf() {
		panic(fmt.Errorf("%w: split on node %v", ErrNotLeaf, node))
	}
	n.State = *new(P)
	l := t.newNode(node, left)
	r := t.newNode(node, right)

	n = &t.nodes[node]
	n.Left = Edge{Child: l}
	n.Right = Edge{Child: r}
	n.Search.Forked = true
	t.changed = true
	return l, r
}

// Returns true if Split has been called since the flag was last cleared
func (t *Tree[P]) Changed() bool {
	return t.changed
}

func (t *Tree[P]) ClearChanged() {
	t.changed = false
}

// Remove a childless node from the tree.
//
// Every ancestor left without children is removed as well.
// If compaction is enabled, the first ancestor left with a single child is spliced out
// and the child is connected to the grandparent, keeping the tags of the child edge.
func (t *Tree[P]) Remove(node NodeID) {
	if !t.Node(node).IsLeaf() {
		panic(fmt.Errorf("%w: node %v", ErrHasChildren, node))
	}
	n := node
	for {
		parent := t.nodes[n].Parent
		if parent == Nil {
			t.root = Edge{Child: Nil}
		} else {
			p := &t.nodes[parent]
			if p.Left.Child == n {
				p.Left = Edge{Child: Nil}
			} else if p.Right.Child == n {
				p.Right = Edge{Child: Nil}
			} else {
				panic(fmt.Errorf("%w: node %v is not a child of its parent %v", ErrCorrupt, n, parent))
			}
		}
		t.deleteNode(n)
		n = parent
		if n == Nil || !t.nodes[n].IsLeaf() {
			break
		}
	}

	if n != Nil && t.compact {
		t.splice(n)
	}
}

// Replace the single-child node n with its child
func (t *Tree[P]) splice(n NodeID) {
	node := &t.nodes[n]
	child := node.Left
	if !child.Valid() {
		child = node.Right
	}
	parent := node.Parent
	t.nodes[child.Child].Parent = parent
	if parent == Nil {
		t.root = child
	} else {
		p := &t.nodes[parent]
		if p.Left.Child == n {
			p.Left = child
		} else {
			p.Right = child
		}
	}
	t.deleteNode(n)
	for _, fn := range t.observers {
		fn(n, child.Child)
	}
}

// Returns the depth of the node, the root has depth 0
func (t *Tree[P]) Depth(id NodeID) int {
	depth := 0
	for p := t.Node(id).Parent; p != Nil; p = t.nodes[p].Parent {
		depth++
	}
	return depth
}

// Returns all leaf nodes in depth first order, left before right
func (t *Tree[P]) Leaves() []NodeID {
	leaves := []NodeID{}
	t.Walk(func(id NodeID, n *Node[P]) bool {
		if n.IsLeaf() {
			leaves = append(leaves, id)
		}
		return true
	})
	return leaves
}

// Visit the nodes of the tree in depth first order.
// The walk stops when visit returns false.
func (t *Tree[P]) Walk(visit func(NodeID, *Node[P]) bool) {
	if !t.root.Valid() {
		return
	}
	stack := []NodeID{t.root.Child}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if !visit(id, n) {
			return
		}
		if n.Right.Valid() {
			stack = append(stack, n.Right.Child)
		}
		if n.Left.Valid() {
			stack = append(stack, n.Left.Child)
		}
	}
}
