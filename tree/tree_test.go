package tree

import (
	"bytes"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"
)

type payload struct {
	name string
	node NodeID
}

func (p *payload) SetNode(id NodeID) { p.node = id }
func (p *payload) String() string    { return p.name }

func newPayload(name string) *payload {
	return &payload{name: name, node: Nil}
}

// Expect fn to panic with an error wrapping target
func expectPanic(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("Expected a panic wrapping %v", target)
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, target) {
			t.Fatalf("Expected a panic wrapping %v. Got: %v", target, r)
		}
	}()
	fn()
}

func TestTreeAttach(t *testing.T) {
	root := newPayload("root")
	tr := New(root, DefaultWidth, false)
	if root.node != tr.Root() {
		t.Fatalf("The initial payload should be bound to the root. Got: %v", root.node)
	}
	tag := tr.AllocateTag()
	tr.EdgeTo(tr.Root()).Tags |= tag

	forked := newPayload("forked")
	l, r := tr.Attach(root.node, forked, root)

	if forked.node != l || root.node != r {
		t.Fatalf("Payloads should be bound to the new children. Got: left %v, right %v", forked.node, root.node)
	}
	n := tr.Node(tr.Root())
	if n.State != nil {
		t.Fatalf("The fork point should not hold a payload after attach")
	}
	if n.Right.Tags != tag {
		t.Fatalf("The right edge should inherit the tag of the path. Got: %b", n.Right.Tags)
	}
	if n.Left.Tags != 0 {
		t.Fatalf("The left edge should start untagged. Got: %b", n.Left.Tags)
	}
	if tr.Len() != 3 {
		t.Fatalf("Expected 3 nodes. Got: %v", tr.Len())
	}
	if err := tr.Validate(true); err != nil {
		t.Fatalf("Unexpected invariant violation: %v", err)
	}
}

func TestTreeAttachPreconditions(t *testing.T) {
	root := newPayload("root")
	tr := New(root, DefaultWidth, false)
	other := newPayload("other")

	expectPanic(t, ErrNotCurrent, func() {
		tr.Attach(tr.Root(), newPayload("l"), other)
	})

	tr.Attach(tr.Root(), newPayload("l"), root)
	expectPanic(t, ErrNotLeaf, func() {
		tr.Attach(tr.Root(), newPayload("l"), root)
	})
	expectPanic(t, ErrHasChildren, func() {
		tr.Remove(tr.Root())
	})
}

func TestTreeAllocateTag(t *testing.T) {
	tr := New(newPayload("root"), 3, false)
	for i := 0; i < 3; i++ {
		if tag := tr.AllocateTag(); tag != Tag(1)<<i {
			t.Fatalf("Expected one-hot tag %b. Got: %b", Tag(1)<<i, tag)
		}
	}
	expectPanic(t, ErrTagsExhausted, func() { tr.AllocateTag() })
}

func TestTreeRemovePrunesAncestors(t *testing.T) {
	root := newPayload("root")
	tr := New(root, DefaultWidth, false)
	a := newPayload("a")
	tr.Attach(root.node, a, root)
	b := newPayload("b")
	tr.Attach(root.node, b, root)

	// root -> (a, n1 -> (b, root))
	tr.Remove(b.node)
	if b.node != Nil {
		t.Fatalf("A removed payload should be unbound")
	}
	if tr.Len() != 4 {
		t.Fatalf("Expected 4 nodes after removing a single leaf. Got: %v", tr.Len())
	}
	if err := tr.Validate(false); err != nil {
		t.Fatalf("Unexpected invariant violation: %v", err)
	}

	tr.Remove(root.node)
	// The parent of root is now childless and is pruned as well
	if tr.Len() != 2 {
		t.Fatalf("Expected the childless ancestor to be pruned. Got %v nodes", tr.Len())
	}
	tr.Remove(a.node)
	if tr.Root() != Nil || tr.Len() != 0 {
		t.Fatalf("Expected the tree to be empty. Root: %v, len: %v", tr.Root(), tr.Len())
	}
}

func TestTreeRemoveCompacts(t *testing.T) {
	root := newPayload("root")
	tr := New(root, DefaultWidth, true)
	tag := tr.AllocateTag()
	tr.EdgeTo(tr.Root()).Tags |= tag

	spliced := []NodeID{}
	tr.Observe(func(old, replacement NodeID) { spliced = append(spliced, old) })

	a := newPayload("a")
	tr.Attach(root.node, a, root)
	b := newPayload("b")
	fork := root.node
	tr.Attach(root.node, b, root)

	tr.Remove(b.node)
	// fork is left with the single child holding root and is spliced out
	if len(spliced) != 1 || spliced[0] != fork {
		t.Fatalf("Expected node %v to be spliced. Got: %v", fork, spliced)
	}
	if tr.Node(root.node).Parent != tr.Root() {
		t.Fatalf("The surviving child should be connected to the grandparent")
	}
	if tr.EdgeTo(root.node).Tags != tag {
		t.Fatalf("The surviving edge should keep its tags. Got: %b", tr.EdgeTo(root.node).Tags)
	}
	if err := tr.Validate(true); err != nil {
		t.Fatalf("Unexpected invariant violation: %v", err)
	}

	tr.Remove(a.node)
	// The root is left with a single child and the child becomes the root
	if tr.Root() != root.node {
		t.Fatalf("Expected the remaining leaf to become the root. Got: %v", tr.Root())
	}
	if tr.RootEdge().Tags != tag {
		t.Fatalf("The root edge should keep the tags of the spliced edge. Got: %b", tr.RootEdge().Tags)
	}
}

func TestTreeSplit(t *testing.T) {
	tr := New(newPayload("root"), DefaultWidth, false)
	tr.EdgeTo(tr.Root()).Tags = tr.AllocateTag()
	if tr.Changed() {
		t.Fatalf("A new tree should not be marked as changed")
	}
	l, r := tr.Split(tr.Root(), newPayload("l"), newPayload("r"))
	if !tr.Changed() {
		t.Fatalf("Split should mark the tree as changed")
	}
	if tr.EdgeTo(l).Tags != 0 || tr.EdgeTo(r).Tags != 0 {
		t.Fatalf("Split should not propagate tags")
	}
	tr.ClearChanged()
	if tr.Changed() {
		t.Fatalf("The changed flag should be cleared")
	}
}

// Perform random forks and removals and check that the tree remains a proper binary tree
func TestTreeRandomOperations(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, compact := range []bool{false, true} {
		root := newPayload("0")
		tr := New(root, DefaultWidth, compact)
		live := []*payload{root}
		next := 1
		for i := 0; i < 2000 && len(live) > 0; i++ {
			index := r.Intn(len(live))
			p := live[index]
			if r.Intn(3) > 0 {
				child := newPayload(strconv.Itoa(next))
				next++
				tr.Attach(p.node, child, p)
				live = append(live, child)
			} else {
				tr.Remove(p.node)
				live[index] = live[len(live)-1]
				live = live[:len(live)-1]
			}
			if err := tr.Validate(compact); err != nil {
				t.Fatalf("Invariant violated after %v operations (compact=%v): %v", i, compact, err)
			}
		}
		leaves := 0
		for _, id := range tr.Leaves() {
			if tr.Node(id).State == nil {
				t.Fatalf("Leaf %v holds no payload", id)
			}
			leaves++
		}
		if leaves != len(live) {
			t.Fatalf("Expected %v occupied leaves. Got: %v", len(live), leaves)
		}
	}
}

func TestTreeDump(t *testing.T) {
	root := newPayload("root")
	tr := New(root, DefaultWidth, false)
	tr.Attach(root.node, newPayload("forked"), root)

	newick := tr.Newick()
	if newick != "(\"forked\",\"root\")\"n0\";" {
		t.Fatalf("Unexpected newick output: %v", newick)
	}

	buf := &bytes.Buffer{}
	if err := tr.WriteDot(buf); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "digraph G {") || !strings.Contains(out, "n0 -> n1") || !strings.Contains(out, "S=root") {
		t.Fatalf("Unexpected dot output: %v", out)
	}
}

func BenchmarkTreeAttachRemove(b *testing.B) {
	root := newPayload("root")
	tr := New(root, DefaultWidth, true)
	for i := 0; i < b.N; i++ {
		child := newPayload("child")
		tr.Attach(root.node, child, root)
		tr.Remove(child.node)
	}
}

func TestTreeValidateTags(t *testing.T) {
	root := newPayload("root")
	tr := New(root, DefaultWidth, true)
	mask := tr.AllocateTag()
	child := newPayload("child")
	tr.Attach(root.node, child, root)

	if err := tr.ValidateTags(mask, nil); err != nil {
		t.Fatalf("Unexpected error for an untagged tree: %v", err)
	}

	tr.EdgeTo(child.node).Tags |= mask
	if err := tr.ValidateTags(mask, []NodeID{child.node}); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected a missing tag on the root edge to be reported. Got: %v", err)
	}
	tr.EdgeTo(tr.Root()).Tags |= mask
	if err := tr.ValidateTags(mask, []NodeID{child.node}); err != nil {
		t.Errorf("Unexpected error for a tagged path: %v", err)
	}
	if err := tr.ValidateTags(mask, []NodeID{child.node, root.node}); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected an untagged tracked leaf to be reported. Got: %v", err)
	}
	if err := tr.ValidateTags(mask, nil); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected a tagged untracked leaf to be reported. Got: %v", err)
	}
	if err := tr.ValidateTags(mask, []NodeID{tr.Root()}); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected a tracked fork point to be reported. Got: %v", err)
	}
}
