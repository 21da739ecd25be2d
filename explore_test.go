package symsched

import (
	"context"
	"net"
	"testing"

	"symsched/config"
	"symsched/rng"
	"symsched/rollout"
	"symsched/scheduler"
	"symsched/simulator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

const program = `
entry: start
blocks:
  - name: start
    instructions: 2
    succ: [check, loop]
  - name: check
    instructions: 3
    unsafe: 2
    succ: [join]
  - name: loop
    instructions: 5
    query_cost: 1ms
    succ: [body]
  - name: body
    instructions: 1
    unsafe: 1
    succ: [left, middle, right]
  - name: left
    succ: [join]
  - name: middle
    succ: [join]
  - name: right
    succ: [join]
  - name: join
    merge: true
    succ: [exit]
  - name: exit
    instructions: 1
`

func newProgram(t *testing.T) *simulator.Program {
	t.Helper()
	p, err := simulator.ParseProgram([]byte(program))
	require.NoError(t, err)
	return p
}

type fakeEvaluator struct {
	calls int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, req rollout.Request) (float64, error) {
	f.calls++
	return float64(len(req.Block)), nil
}

func TestPrepareExplorationRequiresProgram(t *testing.T) {
	_, err := PrepareExploration()
	assert.Error(t, err)
}

func TestPrepareExplorationValidatesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Strategies = []string{"unknown"}
	_, err := PrepareExploration(WithProgram(newProgram(t)), WithConfig(cfg))
	assert.Error(t, err)
}

func TestDefaultExploration(t *testing.T) {
	e, err := PrepareExploration(WithProgram(newProgram(t)), Seed(1))
	require.NoError(t, err)
	assert.Equal(t, "Interleaved(RandomPath, WeightedRandom::CoveringNew)", e.Strategy().Name())

	summary, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, e.ID.String(), summary.Session)
	assert.True(t, summary.Completed)
	assert.Equal(t, 9, summary.Covered)
	assert.Equal(t, 3, summary.Forks)
	assert.False(t, e.Tree().RootEdge().Valid())
}

func TestEveryStrategyExploresTheProgram(t *testing.T) {
	for _, name := range config.KnownStrategies {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Strategies = []string{name}
			e, err := PrepareExploration(WithProgram(newProgram(t)), WithConfig(cfg), Seed(7))
			require.NoError(t, err)

			summary, err := e.Run(context.Background())
			require.NoError(t, err)
			assert.True(t, summary.Completed)
			assert.Equal(t, 9, summary.Covered)
			assert.Equal(t, 4, summary.Terminated)
		})
	}
}

func TestMaxSteps(t *testing.T) {
	e, err := PrepareExploration(WithProgram(newProgram(t)), MaxSteps(2), Seed(1))
	require.NoError(t, err)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Completed)
	assert.Equal(t, 2, summary.Steps)
}

func TestFullChain(t *testing.T) {
	cfg := config.Default()
	cfg.Strategies = []string{"mcts", "dfs"}
	cfg.Batching.Instructions = 4
	cfg.IterativeDeepening = true
	cfg.Merge = config.Merge{Enabled: true, Incomplete: true}
	cfg.Simulation = config.Simulation{Enabled: true, Memoize: true, Limit: 2, Depth: 8}

	e, err := PrepareExploration(WithProgram(newProgram(t)), WithConfig(cfg), Seed(3))
	require.NoError(t, err)
	assert.Equal(t,
		"Splitted(Merging(IterativeDeepeningTime(Batching(time=0s, instructions=4, Interleaved(MCTS, DFS)))), SimulationPath)",
		e.Strategy().Name(),
	)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Greater(t, summary.Rollouts, 0)
	assert.Equal(t, summary.Rollouts, summary.Search.Rollouts)
	assert.NoError(t, summary.RolloutErrors)
}

func TestRolloutEvaluatorOption(t *testing.T) {
	cfg := config.Default()
	cfg.Strategies = []string{"mcts"}
	cfg.Simulation = config.Simulation{Enabled: true, Depth: 4}
	eval := &fakeEvaluator{}

	e, err := PrepareExploration(WithProgram(newProgram(t)), WithConfig(cfg), WithRolloutEvaluator(eval), Seed(1))
	require.NoError(t, err)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Equal(t, summary.Rollouts, eval.calls)
	assert.Greater(t, eval.calls, 0)
}

func TestRemoteRolloutService(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	rollout.Register(srv, simulator.NewEvaluator(newProgram(t), rng.New(1)), nil)
	go srv.Serve(lis)
	defer srv.Stop()

	cfg := config.Default()
	cfg.Strategies = []string{"mcts"}
	cfg.Simulation = config.Simulation{Enabled: true, Depth: 16, Remote: lis.Addr().String()}

	e, err := PrepareExploration(WithProgram(newProgram(t)), WithConfig(cfg), Seed(1))
	require.NoError(t, err)

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Greater(t, summary.Rollouts, 0)
	assert.NoError(t, summary.RolloutErrors)
}

func TestWithStrategy(t *testing.T) {
	var built scheduler.Strategy
	e, err := PrepareExploration(
		WithProgram(newProgram(t)),
		WithStrategy(func(sim *simulator.Simulator) scheduler.Strategy {
			built = scheduler.NewBFS()
			return built
		}),
	)
	require.NoError(t, err)
	assert.Same(t, built, e.Strategy())

	summary, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BFS", summary.Strategy)
	assert.True(t, summary.Completed)
}

const switchIntoMerge = `
blocks:
  - name: start
    succ: [a, b, c, d]
  - name: a
    succ: [join]
  - name: b
    succ: [join]
  - name: c
    succ: [join]
  - name: d
    succ: [join]
  - name: join
    merge: true
    succ: [exit]
  - name: exit
`

func TestMCTSWithMerging(t *testing.T) {
	p, err := simulator.ParseProgram([]byte(switchIntoMerge))
	require.NoError(t, err)

	for _, compact := range []bool{true, false} {
		for _, incomplete := range []bool{false, true} {
			for seed := int64(1); seed <= 40; seed++ {
				cfg := config.Default()
				cfg.Strategies = []string{"mcts"}
				cfg.CompactTree = compact
				cfg.Merge = config.Merge{Enabled: true, Incomplete: incomplete}

				e, err := PrepareExploration(WithProgram(p), WithConfig(cfg), Seed(seed))
				require.NoError(t, err)

				summary, err := e.Run(context.Background())
				require.NoError(t, err, "seed %v", seed)
				assert.True(t, summary.Completed, "seed %v", seed)
				assert.Equal(t, 7, summary.Steps, "seed %v", seed)
				assert.Equal(t, 3, summary.Merged, "seed %v", seed)
				assert.Equal(t, 4, summary.Terminated, "seed %v", seed)
				assert.False(t, e.Tree().RootEdge().Valid(), "seed %v", seed)
			}
		}
	}
}
