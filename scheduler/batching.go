package scheduler

import (
	"fmt"
	"time"

	"symsched/state"

	"go.uber.org/zap"
)

// Reports the total number of instructions executed by the interpreter
type InstructionCounter interface {
	Instructions() uint64
}

// A strategy that keeps selecting the same state of the wrapped strategy
// for as long as it is within a time budget and an instruction budget.
//
// The time budget is increased if the time between two selections of the same state exceeds it,
// so that slow steps do not cause a new selection on every call.
type Batching struct {
	base Strategy
	log  *zap.Logger

	timeBudget        time.Duration
	instructionBudget uint64
	instructions      InstructionCounter

	lastState             state.State
	lastStartTime         time.Time
	lastStartInstructions uint64

	now func() time.Time
}

// Create a new Batching strategy wrapping base.
//
// A zero timeBudget disables the time budget and a zero instructionBudget disables the instruction budget.
// instructions is only used when the instruction budget is enabled.
func NewBatching(base Strategy, timeBudget time.Duration, instructionBudget uint64, instructions InstructionCounter, log *zap.Logger) *Batching {
	if log == nil {
		log = zap.NewNop()
	}
	if instructionBudget > 0 && instructions == nil {
		panic("scheduler: an instruction budget requires an instruction counter")
	}
	return &Batching{
		base:              base,
		log:               log,
		timeBudget:        timeBudget,
		instructionBudget: instructionBudget,
		instructions:      instructions,
		now:               time.Now,
	}
}

func (b *Batching) timeBudgetEnabled() bool {
	return b.timeBudget > 0
}

func (b *Batching) instructionBudgetEnabled() bool {
	return b.instructionBudget > 0
}

func (b *Batching) withinTimeBudget() bool {
	return !b.timeBudgetEnabled() || b.now().Sub(b.lastStartTime) <= b.timeBudget
}

func (b *Batching) withinInstructionBudget() bool {
	return !b.instructionBudgetEnabled() || b.instructions.Instructions()-b.lastStartInstructions <= b.instructionBudget
}

// Returns the last selected state while it is within budget.
// Otherwise selects a new state from the wrapped strategy and restarts the budgets.
func (b *Batching) SelectState() state.State {
	if b.lastState != nil && b.withinTimeBudget() && b.withinInstructionBudget() {
		return b.lastState
	}

	if b.lastState != nil && b.timeBudgetEnabled() {
		delta := b.now().Sub(b.lastStartTime)
		if float64(delta) > float64(b.timeBudget)*1.1 {
			b.log.Info("increased time budget",
				zap.Duration("from", b.timeBudget),
				zap.Duration("to", delta),
			)
			budgetAdjustments.WithLabelValues(b.base.Name(), "time").Inc()
			b.timeBudget = delta
		}
	}

	b.lastState = b.base.SelectState()
	if b.timeBudgetEnabled() {
		b.lastStartTime = b.now()
	}
	if b.instructionBudgetEnabled() {
		b.lastStartInstructions = b.instructions.Instructions()
	}
	return b.lastState
}

// Forget the last selected state if it is removed and forward the update
func (b *Batching) Update(current state.State, added, removed []state.State) {
	if b.lastState != nil && contains(removed, b.lastState) {
		b.lastState = nil
	}
	b.base.Update(current, added, removed)
}

func (b *Batching) Empty() bool {
	return b.base.Empty()
}

// The current time budget
func (b *Batching) TimeBudget() time.Duration {
	return b.timeBudget
}

func (b *Batching) Name() string {
	return fmt.Sprintf("Batching(time=%v, instructions=%v, %v)", b.timeBudget, b.instructionBudget, b.base.Name())
}
