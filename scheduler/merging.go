package scheduler

import (
	"fmt"

	"symsched/state"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// A merge handler tracks a group of states travelling towards a common merge point.
type MergeHandler interface {
	// Returns true if some states of the group have reached the merge point and are waiting
	HasMergedStates() bool
	// Returns a state that should run next so it can reach the merge point.
	// Returns nil if no state is worth waiting for anymore.
	PrioritizeState() state.State
	// Release the states waiting at the merge point so they continue without merging
	ReleaseStates()
}

// A strategy that cooperates with merge handlers.
//
// States waiting at a merge point are paused and hidden from the wrapped strategy.
// With incomplete merging enabled, states that are about to reach a merge point are prioritized.
type Merging struct {
	base Strategy
	log  *zap.Logger

	incompleteMerge bool
	debugLog        bool

	paused   []state.State
	handlers []MergeHandler
}

// Create a new Merging strategy wrapping base.
//
// incompleteMerge enables the prioritization of states approaching a merge point.
// debugLog logs every preemptive release of waiting states.
func NewMerging(base Strategy, incompleteMerge, debugLog bool, log *zap.Logger) *Merging {
	if log == nil {
		log = zap.NewNop()
	}
	return &Merging{
		base:            base,
		log:             log,
		incompleteMerge: incompleteMerge,
		debugLog:        debugLog,
		paused:          make([]state.State, 0),
		handlers:        make([]MergeHandler, 0),
	}
}

func (m *Merging) AddMergeHandler(h MergeHandler) {
	m.handlers = append(m.handlers, h)
}

func (m *Merging) RemoveMergeHandler(h MergeHandler) {
	if index := slices.Index(m.handlers, h); index != -1 {
		m.handlers = slices.Delete(m.handlers, index, index+1)
	}
}

// Hide s from the wrapped strategy while it waits at a merge point.
// Panics if s is already paused.
func (m *Merging) PauseState(s state.State) {
	if contains(m.paused, s) {
		panic(fmt.Errorf("scheduler: state %v paused twice", s))
	}
	m.paused = append(m.paused, s)
	m.base.Update(nil, nil, []state.State{s})
	pausedStates.WithLabelValues("Merging").Set(float64(len(m.paused)))
}

// Return a paused state to the wrapped strategy.
// Panics with ErrUnknownState if s is not paused.
func (m *Merging) ContinueState(s state.State) {
	m.paused = eraseState(m.paused, s, m.Name())
	m.base.Update(nil, []state.State{s}, nil)
	pausedStates.WithLabelValues("Merging").Set(float64(len(m.paused)))
}

// Returns a state a merge handler wants to prioritize.
// A handler with no state worth waiting for has its waiting states released.
// Falls back to the wrapped strategy.
func (m *Merging) SelectState() state.State {
	if m.base.Empty() {
		panic(fmt.Errorf("%w: %v", ErrEmpty, m.Name()))
	}
	if !m.incompleteMerge {
		return m.base.SelectState()
	}

	for _, h := range m.handlers {
		if !h.HasMergedStates() {
			continue
		}
		if s := h.PrioritizeState(); s != nil {
			return s
		}
		if m.debugLog {
			m.log.Debug("preemptively releasing states")
		}
		h.ReleaseStates()
	}
	return m.base.SelectState()
}

// Forward the update unless current is paused, in which case the wrapped strategy no longer knows it
func (m *Merging) Update(current state.State, added, removed []state.State) {
	if current != nil && contains(m.paused, current) {
		return
	}
	m.base.Update(current, added, removed)
}

func (m *Merging) Empty() bool {
	return m.base.Empty()
}

func (m *Merging) Name() string {
	return fmt.Sprintf("Merging(%v)", m.base.Name())
}
