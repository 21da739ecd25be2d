package symsched

import (
	"symsched/config"
	"symsched/mcts"
	"symsched/rng"
	"symsched/scheduler"
	"symsched/simulator"

	"go.uber.org/zap"
)

var weightKinds = map[string]scheduler.WeightKind{
	"nurs:depth":  scheduler.Depth,
	"nurs:rp":     scheduler.RP,
	"nurs:icnt":   scheduler.InstCount,
	"nurs:cpicnt": scheduler.CPInstCount,
	"nurs:qc":     scheduler.QueryCost,
	"nurs:md2u":   scheduler.MinDistToUncovered,
	"nurs:covnew": scheduler.CoveringNew,
}

// Build the strategy chain described by the configuration.
//
// The configured strategies are interleaved, then wrapped by batching, iterative deepening and merging in that order.
// With simulation enabled the chain only schedules normal states and the states of rollouts follow a random path.
func newStrategy(cfg *config.Config, sim *simulator.Simulator, src rng.Source, log *zap.Logger) (scheduler.Strategy, []*mcts.Searcher) {
	strategies := make([]scheduler.Strategy, 0, len(cfg.Strategies))
	searchers := make([]*mcts.Searcher, 0)

	for _, name := range cfg.Strategies {
		switch name {
		case "dfs":
			strategies = append(strategies, scheduler.NewDFS())
		case "bfs":
			strategies = append(strategies, scheduler.NewBFS())
		case "random-state":
			strategies = append(strategies, scheduler.NewRandom(src))
		case "random-path":
			strategies = append(strategies, scheduler.NewRandomPath(sim.Tree(), src))
		case "mcts":
			searcher := mcts.New(sim.Tree(), sim, sim.Program(), src, mcts.Config{
				Simulate: cfg.Simulation.Enabled,
				Memoize:  cfg.Simulation.Memoize,
				Limit:    cfg.Simulation.Limit,
			}, log.Named("mcts"))
			strategies = append(strategies, searcher)
			searchers = append(searchers, searcher)
		default:
			strategies = append(strategies, scheduler.NewWeightedRandom(weightKinds[name], src, sim))
		}
	}

	var s scheduler.Strategy
	if len(strategies) == 1 {
		s = strategies[0]
	} else {
		s = scheduler.NewInterleaved(strategies...)
	}

	if cfg.Batching.Time > 0 || cfg.Batching.Instructions > 0 {
		s = scheduler.NewBatching(s, cfg.Batching.Time, cfg.Batching.Instructions, sim, log)
	}
	if cfg.IterativeDeepening {
		s = scheduler.NewIterativeDeepeningTime(s, log)
	}
	if cfg.Merge.Enabled {
		m := scheduler.NewMerging(s, cfg.Merge.Incomplete, cfg.Merge.DebugLog, log)
		sim.EnableMerging(m)
		s = m
	}
	if cfg.Simulation.Enabled {
		s = scheduler.NewSplitted(s, scheduler.NewSimulationPath(sim.Tree(), src), sim.ModeSwitch())
	}
	return s, searchers
}
