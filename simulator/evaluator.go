package simulator

import (
	"context"
	"fmt"
	"sync"

	"symsched/rng"
	"symsched/rollout"
)

// Evaluates remote rollouts by a random walk over the program.
//
// The walk follows a single path, choosing a successor at random at every branch.
// Safe for concurrent use.
type Evaluator struct {
	program *Program

	mu   sync.Mutex
	rand rng.Source
}

var _ rollout.Evaluator = (*Evaluator)(nil)

func NewEvaluator(program *Program, src rng.Source) *Evaluator {
	return &Evaluator{
		program: program,
		rand:    src,
	}
}

// Returns the number of unsafe operations in the distinct blocks visited by a walk of at most req.Steps blocks
func (e *Evaluator) Evaluate(ctx context.Context, req rollout.Request) (float64, error) {
	if _, ok := e.program.index[req.Block]; !ok {
		return 0, fmt.Errorf("Simulator: unknown block %q", req.Block)
	}

	visited := map[string]bool{}
	block := req.Block
	for i := 0; i < req.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		visited[block] = true
		succ := e.program.Block(block).Succ
		if len(succ) == 0 {
			break
		}
		block = succ[e.next(len(succ))]
	}

	reward := 0
	for b := range visited {
		reward += e.program.UnsafeOperations(b)
	}
	return float64(reward), nil
}

func (e *Evaluator) next(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.rand.Int32() % uint32(n))
}
