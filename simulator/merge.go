package simulator

import (
	"symsched/scheduler"
	"symsched/state"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// The states waiting at a merge block.
//
// A state reaching the block is paused until no other state can reach it.
// The waiting states then continue as a single state and the rest are terminated.
type mergeGroup struct {
	sim     *Simulator
	block   string
	waiting []state.State
}

// Register a merge handler with m for every merge block of the program.
// Must be called before Run.
func (s *Simulator) EnableMerging(m *scheduler.Merging) {
	s.merging = m
	for _, b := range s.program.Blocks {
		if !b.Merge {
			continue
		}
		g := &mergeGroup{sim: s, block: b.Name}
		s.groups[b.Name] = g
		m.AddMergeHandler(g)
	}
}

// Pause the state if it reached a merge block
func (s *Simulator) arrive(es *state.Execution) {
	if s.merging == nil {
		return
	}
	g, ok := s.groups[es.Block()]
	if !ok || slices.Contains(g.waiting, state.State(es)) || slices.Contains(s.pending, state.State(es)) {
		return
	}
	g.waiting = append(g.waiting, es)
	s.merging.PauseState(es)
}

// Merge every group no running state can join anymore
func (s *Simulator) completeMerges() {
	for _, b := range s.program.Blocks {
		g, ok := s.groups[b.Name]
		if !ok || len(g.waiting) == 0 {
			continue
		}
		if g.PrioritizeState() == nil {
			g.merge()
		}
	}
}

// Returns true if the state is paused at any merge block
func (s *Simulator) waiting(st state.State) bool {
	for _, g := range s.groups {
		if slices.Contains(g.waiting, st) {
			return true
		}
	}
	return false
}

func (g *mergeGroup) merge() {
	kept := g.waiting[0]
	for _, w := range g.waiting {
		g.sim.merging.ContinueState(w)
	}
	for _, w := range g.waiting[1:] {
		g.sim.terminateLater(g.sim.execution(w), "merged")
		g.sim.merged++
	}
	g.sim.log.Debug("states merged",
		zap.String("block", g.block),
		zap.Int("states", len(g.waiting)),
		zap.Uint64("kept", uint64(kept.ID())),
	)
	g.waiting = nil
}

func (g *mergeGroup) HasMergedStates() bool {
	return len(g.waiting) > 0
}

// Returns the running state closest to the merge block. nil if no running state can reach it
func (g *mergeGroup) PrioritizeState() state.State {
	var best state.State
	bestDist := -1
	for _, st := range g.sim.live {
		if st.Mode() != state.Normal || g.sim.waiting(st) || slices.Contains(g.sim.pending, st) {
			continue
		}
		d := g.sim.program.distance(st.Block(), g.block)
		if d >= 0 && (bestDist == -1 || d < bestDist) {
			best, bestDist = st, d
		}
	}
	return best
}

func (g *mergeGroup) ReleaseStates() {
	for _, w := range g.waiting {
		g.sim.merging.ContinueState(w)
	}
	g.waiting = nil
}
