package mcts

import (
	"errors"
	"fmt"

	"symsched/rng"
	"symsched/scheduler"
	"symsched/state"
	"symsched/tree"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var ErrNoState = errors.New("mcts: node holds no live state")

// Configures the rollouts of the searcher
type Config struct {
	// Roll out every state the first time it is added to the search tree
	Simulate bool
	// Skip rollouts at blocks whose rollouts stopped improving
	Memoize bool
	// The number of rollouts without improvement before a block is skipped
	Limit int
}

// Counters describing the decisions of the searcher
type Stats struct {
	Selections int
	Expansions int
	Rollouts   int
	Skipped    int
	Restarts   int
	Fallbacks  int
}

// A Monte-Carlo tree searcher over the exploration tree.
//
// Every selection walks from the root.
// Nodes already in the search tree are chosen by their UCT score,
// and the first node outside of it is expanded and optionally rolled out to estimate its reward.
type Searcher struct {
	tree   *tree.Tree[state.State]
	interp Interpreter
	oracle Oracle
	rand   rng.Source
	log    *zap.Logger
	cfg    Config

	children []state.State
	current  state.State

	unsafeBlocks map[string]int
	history      map[string]*record
	stats        Stats
}

// Create a new searcher over t.
//
// interp may be nil if rollouts are disabled. oracle may be nil, in which case expansion is random.
func New(t *tree.Tree[state.State], interp Interpreter, oracle Oracle, src rng.Source, cfg Config, log *zap.Logger) *Searcher {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Simulate && interp == nil {
		panic("mcts: rollouts require an interpreter")
	}
	return &Searcher{
		tree:         t,
		interp:       interp,
		oracle:       oracle,
		rand:         src,
		log:          log,
		cfg:          cfg,
		children:     make([]state.State, 0),
		unsafeBlocks: make(map[string]int),
		history:      make(map[string]*record),
	}
}

// Clear the caches and the rollout history
func (m *Searcher) Reset() {
	maps.Clear(m.unsafeBlocks)
	maps.Clear(m.history)
	m.stats = Stats{}
}

func (m *Searcher) Stats() Stats {
	return m.stats
}

// Returns the next state to run.
//
// Each descent from the root either produces a state or marks at least one node as terminal,
// so the number of descents is bounded by the size of the tree.
func (m *Searcher) SelectState() state.State {
	if len(m.children) == 0 {
		panic(fmt.Errorf("%w: %v", scheduler.ErrEmpty, m.Name()))
	}
	if len(m.children) == 1 {
		return m.children[0]
	}

	for attempt := 0; attempt <= m.tree.Len(); attempt++ {
		if m.tree.Node(m.tree.Root()).Search.Terminal {
			break
		}
		if s := m.descend(); s != nil {
			return s
		}
		m.stats.Restarts++
	}
	return m.fallback()
}

// Walk from the root until a state is produced.
// Returns nil if the walk has to restart.
func (m *Searcher) descend() state.State {
	id := m.tree.Root()
	for {
		n := m.tree.Node(id)
		if n.IsLeaf() {
			if n.State != nil && m.live(n.State) {
				m.stats.Selections++
				return n.State
			}
			n.Search.Terminal = true
			return nil
		}

		if !m.hasEligibleChildren(n) {
			next := m.doSelection(n)
			if next == tree.Nil {
				n.Search.Terminal = true
				return nil
			}
			id = next
			continue
		}

		next := m.doExpansion(n)
		if next == tree.Nil {
			continue
		}
		c := m.tree.Node(next)
		c.Search.InSearchTree = true
		s := c.State
		m.current = s
		m.stats.Expansions++
		// A rollout changes the tree, so c must not be used past this point
		if !m.simulate(next) {
			return nil
		}
		return s
	}
}

// Returns true if a child of n is outside the search tree and not terminal
func (m *Searcher) hasEligibleChildren(n *tree.Node[state.State]) bool {
	for _, c := range []tree.NodeID{n.Left.Child, n.Right.Child} {
		if c == tree.Nil {
			continue
		}
		if s := m.tree.Node(c).Search; !s.InSearchTree && !s.Terminal && !m.untracked(c) {
			return true
		}
	}
	return false
}

// Choose the child of n to descend into.
// Returns tree.Nil if every child is terminal.
func (m *Searcher) doSelection(n *tree.Node[state.State]) tree.NodeID {
	left, right := m.candidate(n.Left.Child), m.candidate(n.Right.Child)
	switch {
	case left == tree.Nil:
		return right
	case right == tree.Nil:
		return left
	}

	l, r := m.tree.Node(left), m.tree.Node(right)
	var ls, rs float64
	if m.isFanOut(n) {
		ls, rs = l.Search.Reward, r.Search.Reward
	} else {
		ls = UCT(n.Search.Visits, l.Search.Visits, l.Search.Reward)
		rs = UCT(n.Search.Visits, r.Search.Visits, r.Search.Reward)
	}
	switch {
	case ls > rs:
		return left
	case ls < rs:
		return right
	default:
		return m.coinFlip(left, right)
	}
}

func (m *Searcher) candidate(id tree.NodeID) tree.NodeID {
	if id == tree.Nil || m.tree.Node(id).Search.Terminal || m.untracked(id) {
		return tree.Nil
	}
	return id
}

// A leaf whose state was removed from the searcher but is still in the tree, such as a paused state
func (m *Searcher) untracked(id tree.NodeID) bool {
	n := m.tree.Node(id)
	return n.IsLeaf() && n.State != nil && !m.live(n.State)
}

// A fan-out point is a fork whose children are forks themselves
func (m *Searcher) isFanOut(n *tree.Node[state.State]) bool {
	if !n.Left.Valid() || !n.Right.Valid() {
		return false
	}
	return !m.tree.Node(n.Left.Child).IsLeaf() && !m.tree.Node(n.Right.Child).IsLeaf()
}

func (m *Searcher) coinFlip(left, right tree.NodeID) tree.NodeID {
	if m.rand.Int32()%2 == 0 {
		return left
	}
	return right
}

func (m *Searcher) live(s state.State) bool {
	return slices.Contains(m.children, s)
}

// Used when no descent produces a state, which happens once every remaining state has been terminated
func (m *Searcher) fallback() state.State {
	m.stats.Fallbacks++
	m.log.Debug("search tree exhausted", zap.Int("states", len(m.children)))
	if m.current != nil && m.live(m.current) {
		return m.current
	}
	return m.children[len(m.children)-1]
}

// Track the added and removed states.
//
// The node of current leaves the search tree, since it has to be evaluated again.
func (m *Searcher) Update(current state.State, added, removed []state.State) {
	if current != nil && current.Node() != tree.Nil {
		m.tree.Node(current.Node()).Search.InSearchTree = false
	}
	m.current = current

	for _, s := range added {
		if len(added) == 1 && s.Mode() == state.Normal && current == nil {
			m.current = s
		}
		m.children = append(m.children, s)
		m.revive(s.Node())
	}

	for _, s := range removed {
		index := slices.Index(m.children, s)
		if index == -1 {
			panic(fmt.Errorf("%w: %v removed state %v", scheduler.ErrUnknownState, m.Name(), s))
		}
		m.children = slices.Delete(m.children, index, index+1)
	}
}

// Clear the terminal flag on the path to a state that is added back.
// A paused state keeps its leaf, so the leaf itself may not be terminal while its ancestors are.
func (m *Searcher) revive(id tree.NodeID) {
	for id != tree.Nil {
		n := m.tree.Node(id)
		n.Search.Terminal = false
		id = n.Parent
	}
}

func (m *Searcher) Empty() bool {
	return len(m.children) == 0
}

func (m *Searcher) Name() string {
	return "MCTS"
}
