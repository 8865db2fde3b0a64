package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/aggregate"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// BatchAggregationJob closes every event not yet in a batch into one new exact batch.
type BatchAggregationJob struct {
	store   storage.FileStorage
	ledger  ledger.Ledger
	batches *BatchRepository
	ids     *BatchIDGenerator
	lock    RunLock
}

func NewBatchAggregationJob(store storage.FileStorage, l ledger.Ledger, batches *BatchRepository, ids *BatchIDGenerator, lock RunLock) *BatchAggregationJob {
	return &BatchAggregationJob{store: store, ledger: l, batches: batches, ids: ids, lock: lock}
}

// Run performs one batch cycle.
func (j *BatchAggregationJob) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := j.run(ctx)
	outcome := res.outcome()
	var locked *LockedError
	if errors.As(err, &locked) {
		outcome = "locked"
	} else if err != nil {
		outcome = "error"
	}
	prom.PipelineRuns.WithLabelValues(ledger.PipelineBatch, outcome).Inc()
	prom.PipelineRunDuration.WithLabelValues(ledger.PipelineBatch).Observe(time.Since(start).Seconds())
	return res, err
}

func (j *BatchAggregationJob) run(ctx context.Context) (Result, error) {
	res := Result{Skipped: []string{}}
	release, err := j.lock.Acquire(ctx, ledger.PipelineBatch)
	if err != nil {
		return res, err
	}
	defer release()

	seen, err := ledger.Set(ctx, j.ledger)
	if err != nil {
		return res, fmt.Errorf("failed to read batch ledger: %w", err)
	}
	found, skipped, err := unseenEvents(ctx, j.store, ledger.PipelineBatch, seen)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped
	if len(found) == 0 {
		st.Logger.Debug().Int("skipped", len(skipped)).Msg("no new events for batch processing")
		return res, nil
	}

	counts := aggregate.Counts{}
	ids := make([]string, 0, len(found))
	for _, ev := range found {
		counts.Add(ev.Key, 1)
		ids = append(ids, ev.ID)
	}
	id, created := j.ids.Next()
	b := aggregate.NewBatch(id, created, counts)
	// batch first, then ledger
	err = j.batches.Write(ctx, b)
	if err != nil {
		return res, err
	}
	err = j.ledger.Append(ctx, ids...)
	if err != nil {
		return res, fmt.Errorf("batch %s written but batch ledger append failed: %w", id, err)
	}
	res.Processed = len(found)
	res.BatchID = id
	prom.PipelineEventsProcessed.WithLabelValues(ledger.PipelineBatch).Add(float64(len(found)))
	prom.LedgerAppends.WithLabelValues(ledger.PipelineBatch).Add(float64(len(ids)))
	prom.BatchesWritten.Inc()
	st.Logger.Info().Str("batch", id).Int("processed", res.Processed).Int("keys", len(counts)).Int("skipped", len(skipped)).Msg("batch written")
	return res, nil
}
