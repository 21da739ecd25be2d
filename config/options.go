package config

import (
	"symsched/rollout"
	"symsched/scheduler"
	"symsched/simulator"

	"go.uber.org/zap"
)

// Use the configuration instead of Default
type ConfigOption struct{ Config *Config }

func (co ConfigOption) ExploreOpt() {}

// The program that is explored
type ProgramOption struct{ Program *simulator.Program }

func (po ProgramOption) ExploreOpt() {}

type LoggerOption struct{ Log *zap.Logger }

func (lo LoggerOption) ExploreOpt() {}

// Evaluate rollouts with the evaluator instead of a local sub-session or the configured remote address
type RolloutOption struct{ Evaluator rollout.Evaluator }

func (ro RolloutOption) ExploreOpt() {}

type SeedOption struct{ Seed int64 }

func (so SeedOption) ExploreOpt() {}

type MaxStepsOption struct{ MaxSteps int }

func (mso MaxStepsOption) ExploreOpt() {}

// Use a pre-built strategy instead of the configured strategies.
//
// The function receives the simulator so the strategy can share its tree and statistics.
type StrategyOption struct {
	Build func(sim *simulator.Simulator) scheduler.Strategy
}

func (so StrategyOption) ExploreOpt() {}

type IgnorePanicOption struct{}

func (ipo IgnorePanicOption) ExploreOpt() {}
