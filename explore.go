// Package symsched explores synthetic programs with the scheduling strategies of a symbolic executor.
package symsched

import (
	"context"
	"fmt"
	"io"

	"symsched/config"
	"symsched/mcts"
	"symsched/rng"
	"symsched/rollout"
	"symsched/scheduler"
	"symsched/simulator"
	"symsched/state"
	"symsched/tree"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Prepare an exploration.
//
// A program must be provided with WithProgram.
// See the ExplorationOptions for a full overview of possible options.
// Default values will be used if no value is provided.
func PrepareExploration(opts ...ExplorationOption) (*Exploration, error) {
	var (
		cfg     = config.Default()
		program *simulator.Program
		log     = zap.NewNop()
		remote  rollout.Evaluator
		build   func(*simulator.Simulator) scheduler.Strategy

		seed         *int64
		maxSteps     *int
		ignorePanics = false
	)

	for _, opt := range opts {
		switch t := opt.(type) {
		case config.ConfigOption:
			c := *t.Config
			cfg = &c
		case config.ProgramOption:
			program = t.Program
		case config.LoggerOption:
			log = t.Log
		case config.RolloutOption:
			remote = t.Evaluator
		case config.SeedOption:
			seed = &t.Seed
		case config.MaxStepsOption:
			maxSteps = &t.MaxSteps
		case config.StrategyOption:
			build = t.Build
		case config.IgnorePanicOption:
			ignorePanics = true
		}
	}
	if program == nil {
		return nil, fmt.Errorf("symsched: a program must be provided to start the exploration")
	}
	if seed != nil {
		cfg.Seed = *seed
	}
	if maxSteps != nil {
		cfg.MaxSteps = *maxSteps
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	log = log.With(zap.String("session", id.String()))

	e := &Exploration{
		ID:  id,
		log: log,
	}
	if cfg.Simulation.Enabled && remote == nil && cfg.Simulation.Remote != "" {
		client, err := rollout.Dial(cfg.Simulation.Remote, log.Named("rollout"))
		if err != nil {
			return nil, err
		}
		remote = client
		e.closers = append(e.closers, client)
	}
	if !cfg.Simulation.Enabled {
		remote = nil
	}

	e.sim = simulator.New(program, simulator.Options{
		TagWidth:     cfg.TagWidth,
		Compact:      cfg.CompactTree,
		MaxSteps:     cfg.MaxSteps,
		MaxDepth:     cfg.MaxDepth,
		RolloutDepth: cfg.Simulation.Depth,
		Remote:       remote,
		IgnorePanics: ignorePanics,
	}, log.Named("simulator"))

	if build != nil {
		e.strategy = build(e.sim)
	} else {
		e.strategy, e.searchers = newStrategy(cfg, e.sim, rng.New(cfg.Seed), log)
	}
	return e, nil
}

// A prepared exploration of a program.
//
// An exploration is started by calling the Run method and can only be run once.
type Exploration struct {
	ID uuid.UUID

	sim       *simulator.Simulator
	strategy  scheduler.Strategy
	searchers []*mcts.Searcher
	log       *zap.Logger
	closers   []io.Closer
}

// The outcome of an exploration
type Summary struct {
	Session  string
	Strategy string
	simulator.Result
	// The decisions of the mcts strategies, if any
	Search mcts.Stats
}

// Run the exploration until every state is explored, the step limit is reached or ctx is done.
func (e *Exploration) Run(ctx context.Context) (Summary, error) {
	defer e.close()
	for _, s := range e.searchers {
		s.Reset()
	}

	res, err := e.sim.Run(ctx, e.strategy)
	summary := Summary{
		Session:  e.ID.String(),
		Strategy: e.strategy.Name(),
		Result:   res,
	}
	for _, s := range e.searchers {
		stats := s.Stats()
		summary.Search.Selections += stats.Selections
		summary.Search.Expansions += stats.Expansions
		summary.Search.Rollouts += stats.Rollouts
		summary.Search.Skipped += stats.Skipped
		summary.Search.Restarts += stats.Restarts
		summary.Search.Fallbacks += stats.Fallbacks
	}
	return summary, err
}

// The exploration tree, holding the states that are still live
func (e *Exploration) Tree() *tree.Tree[state.State] {
	return e.sim.Tree()
}

func (e *Exploration) Strategy() scheduler.Strategy {
	return e.strategy
}

func (e *Exploration) close() {
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			e.log.Warn("unable to close rollout client", zap.Error(err))
		}
	}
	e.closers = nil
}
