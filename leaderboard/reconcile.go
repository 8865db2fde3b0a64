package leaderboard

import (
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/aggregate"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/sketch"
	"gonum.org/v1/gonum/stat"
)

// Violation is a key whose estimate is below its exact count.
type Violation struct {
	Key      string `json:"key"`
	Estimate uint64 `json:"estimate"`
	Exact    uint64 `json:"exact"`
}

// Report summarises how far sketch estimates sit above exact counts.
type Report struct {
	Missing bool `json:"missing"`
	Keys    int  `json:"keys"`
	// totals seen by each pipeline
	SketchTotal uint64 `json:"sketch_total"`
	ExactTotal  uint64 `json:"exact_total"`
	Width       int    `json:"width"`
	Depth       int    `json:"depth"`
	// expected worst overestimate and the chance of staying within it
	ErrorBound float64 `json:"error_bound"`
	Confidence float64 `json:"confidence"`
	// overestimate statistics over keys, violations count as zero
	MeanOverestimate   float64 `json:"mean_overestimate"`
	StdDevOverestimate float64 `json:"stddev_overestimate"`
	MaxOverestimate    uint64  `json:"max_overestimate"`
	// share of keys whose overestimate is within ErrorBound
	WithinBound float64     `json:"within_bound"`
	Violations  []Violation `json:"violations"`
}

// Reconcile checks every key in the batches against the sketch.
// Violations only happen when the two pipelines have consumed different events.
func Reconcile(s *sketch.Sketch, batches []*aggregate.Batch) *Report {
	totals := aggregate.Sum(batches)
	report := &Report{
		Keys:        totals.Len(),
		SketchTotal: s.Total(),
		ExactTotal:  totals.Counts().Total(),
		Width:       s.Width(),
		Depth:       s.Depth(),
		ErrorBound:  s.ErrorBound(),
		Confidence:  s.Confidence(),
		Violations:  []Violation{},
	}
	if totals.Len() == 0 {
		return report
	}
	over := make([]float64, 0, totals.Len())
	within := 0
	for _, key := range totals.Keys() {
		exact := totals.Get(key)
		estimate := s.Estimate(key)
		if estimate < exact {
			report.Violations = append(report.Violations, Violation{Key: key, Estimate: estimate, Exact: exact})
			over = append(over, 0)
			continue
		}
		diff := estimate - exact
		report.MaxOverestimate = max(report.MaxOverestimate, diff)
		if float64(diff) <= report.ErrorBound {
			within++
		}
		over = append(over, float64(diff))
	}
	if len(over) > 1 {
		report.MeanOverestimate, report.StdDevOverestimate = stat.MeanStdDev(over, nil)
	} else {
		report.MeanOverestimate = over[0]
	}
	report.WithinBound = float64(within) / float64(len(over))
	return report
}
