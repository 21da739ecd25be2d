package scheduler

import (
	"fmt"
	"time"

	"symsched/state"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// The quota a state may run before IterativeDeepeningTime pauses it for the first time
const DefaultDeepeningQuota = time.Second

// A strategy that pauses every state that runs longer than a time quota.
//
// Paused states are removed from the wrapped strategy.
// When the wrapped strategy runs out of states the quota is doubled and all paused states are added back.
type IterativeDeepeningTime struct {
	base Strategy
	log  *zap.Logger

	quota     time.Duration
	startTime time.Time
	paused    map[state.State]struct{}

	now func() time.Time
}

// Create a new IterativeDeepeningTime strategy wrapping base, starting with DefaultDeepeningQuota
func NewIterativeDeepeningTime(base Strategy, log *zap.Logger) *IterativeDeepeningTime {
	if log == nil {
		log = zap.NewNop()
	}
	return &IterativeDeepeningTime{
		base:   base,
		log:    log,
		quota:  DefaultDeepeningQuota,
		paused: make(map[state.State]struct{}),
		now:    time.Now,
	}
}

// Select a state from the wrapped strategy and start its quota
func (it *IterativeDeepeningTime) SelectState() state.State {
	s := it.base.SelectState()
	it.startTime = it.now()
	return s
}

// Forward the update without the paused states, which the wrapped strategy no longer knows.
// Pause current if it exceeded the quota.
// Refill the wrapped strategy with the paused states and double the quota when it runs empty.
func (it *IterativeDeepeningTime) Update(current state.State, added, removed []state.State) {
	elapsed := it.now().Sub(it.startTime)

	if len(removed) > 0 {
		alt := make([]state.State, 0, len(removed))
		for _, s := range removed {
			if _, ok := it.paused[s]; ok {
				delete(it.paused, s)
				continue
			}
			alt = append(alt, s)
		}
		it.base.Update(current, added, alt)
	} else {
		it.base.Update(current, added, removed)
	}

	if current != nil && !contains(removed, current) && elapsed > it.quota {
		if _, ok := it.paused[current]; !ok {
			it.paused[current] = struct{}{}
			it.base.Update(nil, nil, []state.State{current})
		}
	}

	if it.base.Empty() && len(it.paused) > 0 {
		it.quota *= 2
		it.log.Info("increased time budget", zap.Duration("quota", it.quota))
		budgetAdjustments.WithLabelValues(it.Name(), "time").Inc()

		states := maps.Keys(it.paused)
		// Keep the refill order independent of map iteration
		slices.SortFunc(states, func(a, b state.State) bool { return a.ID() < b.ID() })
		it.base.Update(nil, states, nil)
		maps.Clear(it.paused)
	}
	pausedStates.WithLabelValues(it.Name()).Set(float64(len(it.paused)))
}

func (it *IterativeDeepeningTime) Empty() bool {
	return it.base.Empty() && len(it.paused) == 0
}

// The current time quota
func (it *IterativeDeepeningTime) Quota() time.Duration {
	return it.quota
}

func (it *IterativeDeepeningTime) Name() string {
	return fmt.Sprintf("IterativeDeepeningTime(%v)", it.base.Name())
}
