package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// StreamUpdater folds newly stored events into the persisted sketch.
type StreamUpdater struct {
	store  storage.FileStorage
	ledger ledger.Ledger
	states *SketchRepository
	lock   RunLock
}

func NewStreamUpdater(store storage.FileStorage, l ledger.Ledger, states *SketchRepository, lock RunLock) *StreamUpdater {
	return &StreamUpdater{store: store, ledger: l, states: states, lock: lock}
}

// Run performs one update cycle.
func (u *StreamUpdater) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res, err := u.run(ctx)
	outcome := res.outcome()
	var locked *LockedError
	if errors.As(err, &locked) {
		outcome = "locked"
	} else if err != nil {
		outcome = "error"
	}
	prom.PipelineRuns.WithLabelValues(ledger.PipelineStream, outcome).Inc()
	prom.PipelineRunDuration.WithLabelValues(ledger.PipelineStream).Observe(time.Since(start).Seconds())
	return res, err
}

func (u *StreamUpdater) run(ctx context.Context) (Result, error) {
	res := Result{Skipped: []string{}}
	release, err := u.lock.Acquire(ctx, ledger.PipelineStream)
	if err != nil {
		return res, err
	}
	defer release()

	seen, err := ledger.Set(ctx, u.ledger)
	if err != nil {
		return res, fmt.Errorf("failed to read stream ledger: %w", err)
	}
	found, skipped, err := unseenEvents(ctx, u.store, ledger.PipelineStream, seen)
	if err != nil {
		return res, err
	}
	res.Skipped = skipped
	if len(found) == 0 {
		st.Logger.Debug().Int("skipped", len(skipped)).Msg("no new events for the sketch")
		return res, nil
	}

	s, err := u.states.LoadOrNew(ctx)
	if err != nil {
		return res, err
	}
	ids := make([]string, 0, len(found))
	for _, ev := range found {
		s.Increment(ev.Key)
		ids = append(ids, ev.ID)
	}
	// state first, then ledger
	err = u.states.Save(ctx, s)
	if err != nil {
		return res, err
	}
	err = u.ledger.Append(ctx, ids...)
	if err != nil {
		return res, fmt.Errorf("sketch saved but stream ledger append failed: %w", err)
	}
	res.Processed = len(found)
	prom.PipelineEventsProcessed.WithLabelValues(ledger.PipelineStream).Add(float64(len(found)))
	prom.LedgerAppends.WithLabelValues(ledger.PipelineStream).Add(float64(len(ids)))
	prom.SketchTotal.Set(float64(s.Total()))
	st.Logger.Info().Int("processed", res.Processed).Int("skipped", len(skipped)).Uint64("total", s.Total()).Msg("sketch updated")
	return res, nil
}
