package simulator

import (
	"time"

	"symsched/state"
)

// The instructions executed by all states at the block of st
func (s *Simulator) InstructionsAt(st state.State) uint64 {
	return s.blockInstructions[st.Block()]
}

func (s *Simulator) CallPathInstructions(st state.State) uint64 {
	return s.execution(st).Metrics.Instructions
}

func (s *Simulator) QueryCost(st state.State) time.Duration {
	return s.execution(st).Metrics.QueryCost
}

func (s *Simulator) MinDistToUncovered(st state.State) uint64 {
	return s.program.distanceToUncovered(st.Block(), s.covered)
}

func (s *Simulator) InstructionsSinceCoveringNew(st state.State) uint64 {
	return s.execution(st).Metrics.InstsSinceCovNew
}

// The instructions executed by the exploration so far
func (s *Simulator) Instructions() uint64 {
	return s.instructions
}
