package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mstodo_poll_cycles_total",
			Help: "Entity poll cycles by outcome.",
		},
		[]string{"status"},
	)

	entityUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mstodo_entity_updates_total",
			Help: "Individual entity updates by outcome.",
		},
		[]string{"status"},
	)
)
