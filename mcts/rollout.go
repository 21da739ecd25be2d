package mcts

import (
	"fmt"

	"symsched/state"
	"symsched/tree"

	"go.uber.org/zap"
)

// The operations the searcher needs from the interpreter running the states.
type Interpreter interface {
	// Exclude the state from normal scheduling
	SuspendState(s state.State)
	// Return a suspended state to normal scheduling
	ResumeState(s state.State)
	// Terminate the state. The interpreter reports it as removed in its next update
	TerminateState(s state.State)
	// Run a rollout of a suspended state and return its reward.
	// The interpreter resumes the state once the rollout completes.
	StartRollout(s state.State) (float64, error)
}

// The rollout history of a basic block
type record struct {
	// The best reward of any rollout started at the block
	Best float64
	// The number of rollouts since Best last improved
	Stale int
	// The number of times a state at the block was expanded
	Visits int
}

// Run a rollout of s and propagate the reward towards the root.
// A failed rollout counts as a reward of 0.
func (m *Searcher) rollout(s state.State) float64 {
	if s.Node() == tree.Nil {
		panic(fmt.Errorf("%w: rollout of %v", ErrNoState, s))
	}
	m.interp.SuspendState(s)
	reward, err := m.interp.StartRollout(s)
	if err != nil {
		m.log.Warn("rollout failed", zap.Uint64("state", uint64(s.ID())), zap.Error(err))
		rolloutsTotal.WithLabelValues("failed").Inc()
		m.interp.ResumeState(s)
		reward = 0
	} else {
		rolloutsTotal.WithLabelValues("completed").Inc()
	}
	m.stats.Rollouts++

	// The rollout may have moved s to a new node
	n := m.tree.Node(s.Node())
	n.Search.RolledOut = true
	n.Search.InSearchTree = true
	m.backpropagate(s.Node(), reward)
	return reward
}

// Record the reward on the node and add it to every ancestor
func (m *Searcher) backpropagate(id tree.NodeID, reward float64) {
	n := m.tree.Node(id)
	n.Search.Visits = 1
	n.Search.Reward = reward
	for p := n.Parent; p != tree.Nil; p = m.tree.Node(p).Parent {
		a := m.tree.Node(p)
		a.Search.Visits++
		a.Search.Reward += reward
	}
}

// Roll out the state of the freshly expanded node if it has not been rolled out yet.
//
// With memoization a block whose rollouts stopped improving the best reward is not rolled out again.
// Its state is terminated instead and false is returned.
func (m *Searcher) simulate(id tree.NodeID) bool {
	n := m.tree.Node(id)
	if !m.cfg.Simulate || n.Search.RolledOut {
		return true
	}
	s := n.State
	if !m.cfg.Memoize {
		m.rollout(s)
		return true
	}

	rec, ok := m.history[s.Block()]
	if !ok {
		rec = &record{}
		m.history[s.Block()] = rec
	} else {
		rec.Visits++
	}
	if rec.Stale >= m.cfg.Limit {
		n.Search.RolledOut = true
		n.Search.Terminal = true
		m.log.Debug("rollout skipped",
			zap.String("block", s.Block()),
			zap.Float64("best", rec.Best),
			zap.Int("visits", rec.Visits),
		)
		rolloutsTotal.WithLabelValues("skipped").Inc()
		m.stats.Skipped++
		m.interp.TerminateState(s)
		return false
	}

	reward := m.rollout(s)
	if rec.Best >= reward {
		rec.Stale++
	} else {
		rec.Stale = 0
		rec.Best = reward
	}
	return true
}
