package symsched

import (
	"symsched/config"
	"symsched/rollout"
	"symsched/scheduler"
	"symsched/simulator"

	"go.uber.org/zap"
)

// A option used to configure an Exploration
type ExplorationOption interface {
	// noop method
	ExploreOpt()
}

// Explore the provided program. Mandatory.
func WithProgram(program *simulator.Program) ExplorationOption {
	return config.ProgramOption{Program: program}
}

// Use the provided configuration.
//
// Default value is config.Default()
func WithConfig(cfg *config.Config) ExplorationOption {
	return config.ConfigOption{Config: cfg}
}

// Log with the provided logger.
//
// Default value is a no-op logger.
func WithLogger(log *zap.Logger) ExplorationOption {
	return config.LoggerOption{Log: log}
}

// Evaluate rollouts with the provided evaluator.
//
// Overrides the rollout service address of the configuration.
// Only used if simulation is enabled.
func WithRolloutEvaluator(eval rollout.Evaluator) ExplorationOption {
	return config.RolloutOption{Evaluator: eval}
}

// Seed the random source. Overrides the seed of the configuration
func Seed(seed int64) ExplorationOption {
	return config.SeedOption{Seed: seed}
}

// Configure the maximum number of steps of the exploration. Overrides the configuration
func MaxSteps(maxSteps int) ExplorationOption {
	return config.MaxStepsOption{MaxSteps: maxSteps}
}

// Use the strategy returned by build instead of the configured strategies.
//
// Used to explore with a strategy that can not be described by the configuration.
func WithStrategy(build func(sim *simulator.Simulator) scheduler.Strategy) ExplorationOption {
	return config.StrategyOption{Build: build}
}

// Set the ignorePanic flag to true.
//
// If true, panics that occur during the exploration are caught and returned as an error.
// If false, the panic stops the exploration, which makes it easier to inspect the state with a debugger.
func IgnorePanic() ExplorationOption {
	return config.IgnorePanicOption{}
}
