package scheduler

import (
	"fmt"
	"sync/atomic"

	"symsched/state"
)

// Records whether the interpreter is running a rollout.
//
// The interpreter sets it when a rollout starts and clears it when the rollout completes.
type ModeSwitch struct {
	simulating atomic.Bool
}

func (m *ModeSwitch) Simulating() bool {
	return m.simulating.Load()
}

func (m *ModeSwitch) Set(simulating bool) {
	m.simulating.Store(simulating)
}

// A strategy that routes between a strategy for normal states and a strategy for simulation states.
//
// Selection goes to the simulation strategy while a rollout runs and to the normal strategy otherwise.
// Updates are partitioned by the mode of each state before being forwarded.
type Splitted struct {
	normal     Strategy
	simulation Strategy
	mode       *ModeSwitch
}

// Create a new Splitted strategy
func NewSplitted(normal, simulation Strategy, mode *ModeSwitch) *Splitted {
	return &Splitted{
		normal:     normal,
		simulation: simulation,
		mode:       mode,
	}
}

func (s *Splitted) SelectState() state.State {
	if s.mode.Simulating() {
		return s.simulation.SelectState()
	}
	return s.normal.SelectState()
}

// Forward the normal states to the normal strategy and the simulation states to the simulation strategy.
// current is replaced by nil for the strategy whose mode it does not belong to.
func (s *Splitted) Update(current state.State, added, removed []state.State) {
	var addedNormal, addedSimulation, removedNormal, removedSimulation []state.State
	for _, es := range added {
		if es.Mode() == state.Simulation {
			addedSimulation = append(addedSimulation, es)
		} else {
			addedNormal = append(addedNormal, es)
		}
	}
	for _, es := range removed {
		if es.Mode() == state.Simulation {
			removedSimulation = append(removedSimulation, es)
		} else {
			removedNormal = append(removedNormal, es)
		}
	}

	if current != nil && current.Mode() == state.Simulation {
		s.normal.Update(nil, addedNormal, removedNormal)
		s.simulation.Update(current, addedSimulation, removedSimulation)
	} else {
		s.normal.Update(current, addedNormal, removedNormal)
		s.simulation.Update(nil, addedSimulation, removedSimulation)
	}
}

func (s *Splitted) Empty() bool {
	return s.normal.Empty() && s.simulation.Empty()
}

func (s *Splitted) Name() string {
	return fmt.Sprintf("Splitted(%v, %v)", s.normal.Name(), s.simulation.Name())
}
