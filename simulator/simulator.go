package simulator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"symsched/rollout"
	"symsched/scheduler"
	"symsched/state"
	"symsched/tree"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"golang.org/x/time/rate"
)

var ErrAlreadyRun = errors.New("Simulator: an exploration can only be run once")

// Configures a Simulator
type Options struct {
	// The number of consumer tags of the exploration tree
	TagWidth int
	// Splice out fork points left with a single child
	Compact bool
	// The maximal number of steps of the exploration. 0 means no limit
	MaxSteps int
	// States that reach a branch at this depth are terminated. 0 means no limit
	MaxDepth int
	// The maximal number of steps of a rollout
	RolloutDepth int
	// Evaluates rollouts remotely instead of in a local sub-session
	Remote rollout.Evaluator
	// If true, panics raised during the exploration are caught and returned as an error
	IgnorePanics bool
}

// The outcome of an exploration
type Result struct {
	Steps        int
	Instructions uint64
	Forks        int
	Terminated   int
	Merged       int
	Rollouts     int
	Covered      int
	// True if every state was explored to its end
	Completed bool
	// The errors of failed rollouts, nil if no rollout failed
	RolloutErrors error
}

// Simulates the symbolic execution of a synthetic program.
//
// The simulator is the only component that changes the exploration tree.
// It drives a strategy by alternating calls to SelectState and Update,
// and runs the rollouts requested by the strategy, either locally or through a remote evaluator.
type Simulator struct {
	program *Program
	tree    *tree.Tree[state.State]
	mode    *scheduler.ModeSwitch
	log     *zap.Logger
	opts    Options

	strategy scheduler.Strategy
	ctx      context.Context
	started  bool

	initial *state.Execution
	nextID  state.ID
	// Normal states known to the strategy
	live []state.State
	// States terminated outside of a step, reported as removed with the next update
	pending []state.State

	merging *scheduler.Merging
	groups  map[string]*mergeGroup

	instructions      uint64
	blockInstructions map[string]uint64
	covered           map[string]bool

	steps       int
	forks       int
	terminated  int
	merged      int
	rollouts    int
	rolloutErrs []error

	progress rate.Sometimes
}

// Create a new simulator for the program with a single initial state at its entry block
func New(program *Program, opts Options, log *zap.Logger) *Simulator {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.TagWidth == 0 {
		opts.TagWidth = tree.DefaultWidth
	}
	initial := state.New(0, program.Entry)
	return &Simulator{
		program:           program,
		tree:              tree.New[state.State](initial, opts.TagWidth, opts.Compact),
		mode:              &scheduler.ModeSwitch{},
		log:               log,
		opts:              opts,
		initial:           initial,
		nextID:            1,
		groups:            make(map[string]*mergeGroup),
		blockInstructions: make(map[string]uint64),
		covered:           make(map[string]bool),
		progress:          rate.Sometimes{Interval: time.Second},
	}
}

// The exploration tree. Strategies may read it and maintain their tags, but never change its structure
func (s *Simulator) Tree() *tree.Tree[state.State] {
	return s.tree
}

// The switch telling Splitted strategies whether a rollout is running
func (s *Simulator) ModeSwitch() *scheduler.ModeSwitch {
	return s.mode
}

func (s *Simulator) Program() *Program {
	return s.program
}

// Explore the program with the strategy until no state is left, the step limit is reached or ctx is done.
func (s *Simulator) Run(ctx context.Context, strategy scheduler.Strategy) (res Result, err error) {
	if s.started {
		return Result{}, ErrAlreadyRun
	}
	s.started = true
	s.strategy = strategy
	s.ctx = ctx

	if s.opts.IgnorePanics {
		defer func() {
			if p := recover(); p != nil {
				res = s.result(false)
				err = fmt.Errorf("Simulator: exploration panicked: %v \nStack Trace:\n %s", p, debug.Stack())
			}
		}()
	}

	s.log.Info("exploration started", zap.String("strategy", strategy.Name()), zap.String("entry", s.program.Entry))
	statesTotal.WithLabelValues("started").Inc()
	s.update(nil, []state.State{s.initial}, nil)
	s.arrive(s.initial)
	s.completeMerges()

	for !strategy.Empty() {
		if err := ctx.Err(); err != nil {
			return s.result(false), err
		}
		if s.opts.MaxSteps > 0 && s.steps >= s.opts.MaxSteps {
			s.log.Info("step limit reached", zap.Int("steps", s.steps))
			return s.result(false), nil
		}

		es := s.execution(strategy.SelectState())
		if slices.Contains(s.pending, state.State(es)) {
			s.update(nil, nil, nil)
			continue
		}
		added, removed := s.step(es, false)
		s.update(es, added, removed)

		for _, a := range append(added, es) {
			if a.Node() != tree.Nil {
				s.arrive(s.execution(a))
			}
		}
		s.completeMerges()

		s.progress.Do(func() {
			s.log.Info("exploration progress",
				zap.Int("steps", s.steps),
				zap.Int("states", len(s.live)),
				zap.Int("forks", s.forks),
				zap.Int("covered", len(s.covered)),
			)
		})
	}

	res = s.result(true)
	s.log.Info("exploration finished",
		zap.Int("steps", res.Steps),
		zap.Int("covered", res.Covered),
		zap.Int("rollouts", res.Rollouts),
	)
	return res, nil
}

func (s *Simulator) result(completed bool) Result {
	res := Result{
		Steps:        s.steps,
		Instructions: s.instructions,
		Forks:        s.forks,
		Terminated:   s.terminated,
		Merged:       s.merged,
		Rollouts:     s.rollouts,
		Covered:      len(s.covered),
		Completed:    completed,
	}
	if len(s.rolloutErrs) > 0 {
		res.RolloutErrors = simulationError{errorSlice: s.rolloutErrs}
	}
	return res
}

// Report a step of the exploration to the strategy together with the pending terminations.
// The removed states are then dropped from the tree.
func (s *Simulator) update(current state.State, added, removed []state.State) {
	for _, p := range s.pending {
		if !slices.Contains(removed, p) {
			removed = append(removed, p)
		}
	}
	s.pending = s.pending[:0]

	s.strategy.Update(current, added, removed)
	s.live = append(s.live, added...)
	for _, r := range removed {
		if index := slices.Index(s.live, r); index != -1 {
			s.live = slices.Delete(s.live, index, index+1)
		}
		s.tree.Remove(r.Node())
	}
}

// Terminate a state outside of its own step
func (s *Simulator) terminateLater(es *state.Execution, reason string) {
	if slices.Contains(s.pending, state.State(es)) {
		return
	}
	s.pending = append(s.pending, es)
	s.terminated++
	statesTotal.WithLabelValues(reason).Inc()
}

func (s *Simulator) execution(st state.State) *state.Execution {
	es, ok := st.(*state.Execution)
	if !ok {
		panic(fmt.Errorf("Simulator: unexpected state type %T", st))
	}
	return es
}

func (s *Simulator) newID() state.ID {
	id := s.nextID
	s.nextID++
	return id
}

// Execute the block of the state and move it to the successors of the block.
// Rollout steps do not count towards the statistics of the exploration.
func (s *Simulator) step(es *state.Execution, inRollout bool) (added, removed []state.State) {
	b := s.program.Block(es.Block())
	es.Metrics.Instructions += b.Instructions
	es.Metrics.QueryCost += b.QueryCost

	if !inRollout {
		s.steps++
		stepsTotal.Inc()
		s.instructions += b.Instructions
		s.blockInstructions[b.Name] += b.Instructions
		if !s.covered[b.Name] {
			s.covered[b.Name] = true
			es.Metrics.InstsSinceCovNew = 0
		} else {
			es.Metrics.InstsSinceCovNew += b.Instructions
		}
	}

	switch {
	case len(b.Succ) == 0:
		if !inRollout {
			s.terminated++
			statesTotal.WithLabelValues("terminated").Inc()
		}
		return nil, []state.State{es}
	case len(b.Succ) == 1:
		es.Goto(b.Succ[0])
		return nil, nil
	case !inRollout && s.opts.MaxDepth > 0 && es.Depth() >= s.opts.MaxDepth:
		s.terminated++
		statesTotal.WithLabelValues("max_depth").Inc()
		return nil, []state.State{es}
	default:
		return s.split(es, b.Succ, inRollout), nil
	}
}

// Fork the state once per successor beyond the first.
// The successors are split in halves, so a switch becomes a balanced tree of binary forks.
// The new state takes the first half and es continues with the second.
func (s *Simulator) split(es *state.Execution, succ []string, inRollout bool) []state.State {
	if len(succ) == 1 {
		es.Goto(succ[0])
		return nil
	}
	mid := len(succ) / 2
	forked := es.Fork(s.newID())
	s.tree.Attach(es.Node(), forked, es)
	if !inRollout {
		s.forks++
		statesTotal.WithLabelValues("forked").Inc()
	}

	added := []state.State{forked}
	added = append(added, s.split(forked, succ[:mid], inRollout)...)
	added = append(added, s.split(es, succ[mid:], inRollout)...)
	return added
}
