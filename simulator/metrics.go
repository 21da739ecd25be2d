package simulator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "symsched",
		Subsystem: "simulator",
		Name:      "steps_total",
		Help:      "Number of blocks executed by explored states",
	})

	statesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "symsched",
			Subsystem: "simulator",
			Name:      "states_total",
			Help:      "Number of state life cycle events",
		},
		[]string{"event"},
	)
)
