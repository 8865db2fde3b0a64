package leaderboard

import (
	"fmt"
	"io"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/kvprovider"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/registry"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/sketch"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// System holds every component sharing one event store.
type System struct {
	Store        storage.FileStorage
	StreamLedger ledger.Ledger
	BatchLedger  ledger.Ledger
	States       *pipeline.SketchRepository
	Batches      *pipeline.BatchRepository
	Stream       *pipeline.StreamUpdater
	Batch        *pipeline.BatchAggregationJob
	Service      *Service
}

// NewSystem assembles the pipelines and query service over existing backends.
func NewSystem(store storage.FileStorage, streamLedger, batchLedger ledger.Ledger, lock pipeline.RunLock, dims sketch.Dimensions) *System {
	states := pipeline.NewSketchRepository(store, dims)
	batches := pipeline.NewBatchRepository(store)
	return &System{
		Store:        store,
		StreamLedger: streamLedger,
		BatchLedger:  batchLedger,
		States:       states,
		Batches:      batches,
		Stream:       pipeline.NewStreamUpdater(store, streamLedger, states, lock),
		Batch:        pipeline.NewBatchAggregationJob(store, batchLedger, batches, pipeline.NewBatchIDGenerator(), lock),
		Service:      NewService(states, batches, registry.NewLedgerRegistry(store, streamLedger, batchLedger)),
	}
}

// NewKVFromSettings connects to redis when configured, otherwise keeps everything in memory.
func NewKVFromSettings() (*kvprovider.KVMulti, error) {
	if st.Settings.Redis.Endpoint == "" {
		return kvprovider.NewMemoryProviders()
	}
	return kvprovider.NewRedisProviders()
}

// NewSystemFromSettings opens the configured storage and ledgers.
// Runs are locked through redis when it is configured so separate processes do not overlap.
func NewSystemFromSettings(kv *kvprovider.KVMulti) (*System, error) {
	store, err := storage.NewFromSettings(&st.Settings.Storage)
	if err != nil {
		return nil, err
	}
	streamLedger, err := ledger.NewFromSettings(&st.Settings.Ledger, ledger.PipelineStream, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream ledger: %w", err)
	}
	batchLedger, err := ledger.NewFromSettings(&st.Settings.Ledger, ledger.PipelineBatch, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch ledger: %w", err)
	}
	var lock pipeline.RunLock = pipeline.NewLocalRunLock()
	if st.Settings.Redis.Endpoint != "" {
		lock = pipeline.NewKVRunLock(kv.RunLocks, time.Second*time.Duration(st.Settings.Schedule.LockTTLSeconds))
	}
	dims := sketch.Dimensions{Width: st.Sketch.Width, Depth: st.Sketch.Depth}
	st.Logger.Info().Str("sketch", dims.String()).Str("ledger", st.Settings.Ledger.Backend).Msg("leaderboard initialised")
	return NewSystem(store, streamLedger, batchLedger, lock, dims), nil
}

// Close releases ledger connections.
func (s *System) Close() error {
	var firstErr error
	for _, l := range []ledger.Ledger{s.StreamLedger, s.BatchLedger} {
		if c, ok := l.(io.Closer); ok {
			err := c.Close()
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
