package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tokenRefreshes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mstodo_token_refreshes_total",
		Help: "OAuth token refresh attempts by outcome.",
	},
	[]string{"status"},
)
