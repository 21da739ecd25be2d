package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	budgetAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "symsched",
			Subsystem: "scheduler",
			Name:      "budget_adjustments_total",
			Help:      "Number of times a composite strategy increased one of its budgets",
		},
		[]string{"strategy", "budget"},
	)

	pausedStates = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "symsched",
			Subsystem: "scheduler",
			Name:      "paused_states",
			Help:      "Number of states currently paused by a composite strategy",
		},
		[]string{"strategy"},
	)
)
