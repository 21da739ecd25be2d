package mcts

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rolloutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "symsched",
			Subsystem: "mcts",
			Name:      "rollouts_total",
			Help:      "Number of rollouts requested by the searcher, by outcome",
		},
		[]string{"outcome"},
	)

	expansionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "symsched",
			Subsystem: "mcts",
			Name:      "expansions_total",
			Help:      "Number of nodes added to the search tree, by how the node was chosen",
		},
		[]string{"kind"},
	)

	oracleFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "symsched",
			Subsystem: "mcts",
			Name:      "oracle_fallbacks_total",
			Help:      "Number of branch rankings where no common continuation was found",
		},
	)
)
