package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaderboard_query_duration_seconds",
		Help:    "Duration of top-k queries",
		Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
	}, []string{"mode"})
	QueryMissingState = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_query_missing_state_total",
		Help: "Queries answered empty because no state existed yet",
	}, []string{"mode"})
	ReconcileViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leaderboard_reconcile_dominance_violations",
		Help: "Keys whose approximate estimate fell below the exact count at last reconcile",
	})
	RestapiTimes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaderboard_restapi_time_seconds",
		Help:    "Duration of restapi processing",
		Buckets: []float64{.005, .01, .025, .050, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"method", "path"})
	RestapiCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_restapi_response_codes",
		Help: "The response codes for restapi endpoints",
	}, []string{"method", "path", "code"})
)
