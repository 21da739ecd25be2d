package simulator

import (
	"context"
	"fmt"

	"symsched/rollout"
	"symsched/state"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

func (s *Simulator) SuspendState(st state.State) {
	s.execution(st).Suspend()
}

func (s *Simulator) ResumeState(st state.State) {
	if es := s.execution(st); es.Mode() == state.Suspended {
		es.Resume()
	}
}

// The state is reported as removed with the next update of the exploration
func (s *Simulator) TerminateState(st state.State) {
	s.terminateLater(s.execution(st), "skipped")
}

// Run a rollout of the suspended state and resume it afterwards.
//
// The reward is the number of unsafe operations in the distinct blocks the rollout visits.
func (s *Simulator) StartRollout(st state.State) (float64, error) {
	origin := s.execution(st)
	s.rollouts++
	defer origin.Resume()

	if s.opts.Remote != nil {
		return s.remoteRollout(origin)
	}
	return s.localRollout(origin), nil
}

func (s *Simulator) remoteRollout(origin *state.Execution) (float64, error) {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	reward, err := s.opts.Remote.Evaluate(ctx, rollout.Request{
		StateID: uint64(origin.ID()),
		Block:   origin.Block(),
		Depth:   origin.Depth(),
		Level:   origin.Level(),
		Steps:   s.opts.RolloutDepth,
	})
	if err != nil {
		err = fmt.Errorf("Simulator: rollout of state %v: %w", origin, err)
		s.rolloutErrs = append(s.rolloutErrs, err)
		return 0, err
	}
	return reward, nil
}

// Explore the program from the state in a sub-session.
//
// The simulation states live in the subtree of the origin and are scheduled by the simulation strategy.
// They are removed again once the step budget is spent or the last of them terminates.
func (s *Simulator) localRollout(origin *state.Execution) float64 {
	wasSimulating := s.mode.Simulating()
	s.mode.Set(true)
	defer s.mode.Set(wasSimulating)

	sim := origin.Spawn(s.newID())
	s.tree.Attach(origin.Node(), sim, origin)
	sims := []state.State{sim}
	s.strategy.Update(nil, sims, nil)

	visited := map[string]bool{}
	for i := 0; i < s.opts.RolloutDepth && len(sims) > 0; i++ {
		es := s.execution(s.strategy.SelectState())
		visited[es.Block()] = true

		added, removed := s.step(es, true)
		sims = append(sims, added...)
		for _, r := range removed {
			index := slices.Index(sims, r)
			sims = slices.Delete(sims, index, index+1)
			if len(sims) == 0 {
				// Hands control back to the origin
				s.execution(r).MarkResumed()
			}
		}
		s.strategy.Update(es, added, removed)
		for _, r := range removed {
			s.tree.Remove(r.Node())
		}
	}

	if len(sims) > 0 {
		for _, r := range sims {
			s.execution(r).MarkResumed()
		}
		s.strategy.Update(nil, nil, sims)
		for _, r := range sims {
			s.tree.Remove(r.Node())
		}
	}

	reward := 0
	for b := range visited {
		reward += s.program.UnsafeOperations(b)
	}
	s.log.Debug("rollout completed",
		zap.Stringer("state", origin),
		zap.Int("blocks", len(visited)),
		zap.Int("reward", reward),
	)
	return float64(reward)
}
