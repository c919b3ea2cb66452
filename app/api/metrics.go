package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

var feedRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "blogreplay_feed_requests_total",
		Help: "Rendered feed downloads served, by feed key.",
	},
	[]string{"feed"},
)

func init() {
	prometheus.MustRegister(feedRequests)
}
