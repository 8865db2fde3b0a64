package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_pipeline_runs_total",
		Help: "Pipeline runs by outcome (updated, noop, locked, error)",
	}, []string{"pipeline", "result"})
	PipelineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaderboard_pipeline_run_duration",
		Help:    "Duration of a single pipeline run",
		Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
	}, []string{"pipeline"})
	PipelineEventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_pipeline_events_processed_total",
		Help: "Raw events folded into sketch state or a batch",
	}, []string{"pipeline"})
	PipelineMalformedRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_pipeline_malformed_records_total",
		Help: "Raw events skipped because they could not be parsed",
	}, []string{"pipeline"})
	LedgerAppends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leaderboard_ledger_appends_total",
		Help: "Event ids appended to a consumption ledger",
	}, []string{"pipeline"})
	BatchesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "leaderboard_batches_written_total",
		Help: "Exact batches written",
	})
	SketchTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "leaderboard_sketch_total_events",
		Help: "Sum of all counts in the persisted sketch",
	})
)
