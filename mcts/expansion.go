package mcts

import (
	"symsched/state"
	"symsched/tree"

	"go.uber.org/zap"
)

// Ranks the two sides of a fork by inspecting the control flow graph of the program.
type Oracle interface {
	// Returns the basic blocks each side executes before the two sides meet again.
	// ok is false if no common continuation was found, in which case the blocks are an approximation.
	BranchBlocks(left, right state.State) (leftBlocks, rightBlocks []string, ok bool)
	// The number of potentially unsafe operations in the block
	UnsafeOperations(block string) int
}

// Count the unsafe operations of the blocks, consulting the per-block cache first
func (m *Searcher) unsafeOperations(blocks []string) int {
	count := 0
	for _, b := range blocks {
		n, ok := m.unsafeBlocks[b]
		if !ok {
			n = m.oracle.UnsafeOperations(b)
			m.unsafeBlocks[b] = n
		}
		count += n
	}
	return count
}

// Score both sides of a fork by the unsafe operations they reach before the sides join
func (m *Searcher) expansionScore(left, right state.State) (float64, float64) {
	if m.oracle == nil {
		return 0, 0
	}
	lb, rb, ok := m.oracle.BranchBlocks(left, right)
	if !ok {
		oracleFallbacksTotal.Inc()
		m.log.Warn("no common continuation for branch",
			zap.String("left", left.Block()),
			zap.String("right", right.Block()),
		)
		if len(lb) == 0 {
			lb = []string{left.Block()}
		}
		if len(rb) == 0 {
			rb = []string{right.Block()}
		}
	}
	return 0.5 * float64(m.unsafeOperations(lb)), 0.5 * float64(m.unsafeOperations(rb))
}

// Choose between two unexpanded leaves by their expansion score. Ties are broken at random
func (m *Searcher) expandBest(left, right tree.NodeID) tree.NodeID {
	l, r := m.tree.Node(left).State, m.tree.Node(right).State
	ls, rs := m.expansionScore(l, r)
	switch {
	case ls > rs:
		return left
	case ls < rs:
		return right
	default:
		return m.coinFlip(left, right)
	}
}

// Pick the child of n to add to the search tree.
//
// Returns tree.Nil if no child holds a state that can be expanded.
// The node and its children are then marked as part of the search tree, so the next pass selects among them by reward.
func (m *Searcher) doExpansion(n *tree.Node[state.State]) tree.NodeID {
	left, right := n.Left.Child, n.Right.Child
	if m.expandable(left) && m.expandable(right) {
		expansionsTotal.WithLabelValues("oracle").Inc()
		return m.expandBest(left, right)
	}
	if m.expandable(left) {
		expansionsTotal.WithLabelValues("single").Inc()
		return left
	}
	if m.expandable(right) {
		expansionsTotal.WithLabelValues("single").Inc()
		return right
	}

	// Fan-out point, no live state on either side
	expansionsTotal.WithLabelValues("fanout").Inc()
	n.Search.InSearchTree = true
	for _, c := range []tree.NodeID{left, right} {
		if c != tree.Nil {
			m.tree.Node(c).Search.InSearchTree = true
		}
	}
	return tree.Nil
}

// A leaf holding a tracked state that is not yet part of the search tree
func (m *Searcher) expandable(id tree.NodeID) bool {
	if id == tree.Nil {
		return false
	}
	c := m.tree.Node(id)
	return c.IsLeaf() && c.State != nil && m.live(c.State) && !c.Search.InSearchTree && !c.Search.Terminal
}
