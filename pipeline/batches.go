package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/aggregate"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
	"github.com/google/uuid"
)

const batchPrefix = "batch_"

// BatchIDGenerator hands out batch ids that sort in creation order.
// Ids carry unix nanoseconds, bumped so each is strictly greater than the last from this
// generator, plus a random suffix so separate processes never collide.
type BatchIDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewBatchIDGenerator() *BatchIDGenerator {
	return &BatchIDGenerator{now: time.Now}
}

// Next returns a new id and the time it encodes.
func (g *BatchIDGenerator) Next() (string, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ts := g.now().UnixNano()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	// 20 digits covers every int64
	return fmt.Sprintf("%s%020d_%s", batchPrefix, ts, suffix), time.Unix(0, ts).UTC()
}

// IsBatchObject reports whether a stored object is a batch.
func IsBatchObject(objectID string) bool {
	return strings.HasPrefix(objectID, batchPrefix) && strings.HasSuffix(objectID, ".json")
}

// BatchRepository reads and writes exact batches.
type BatchRepository struct {
	store storage.FileStorage
}

func NewBatchRepository(store storage.FileStorage) *BatchRepository {
	return &BatchRepository{store: store}
}

// Write stores a batch. Batches are immutable, an existing id is an error.
func (r *BatchRepository) Write(ctx context.Context, b *aggregate.Batch) error {
	objectID := b.ID + ".json"
	exists, err := r.store.Exists(ctx, storage.LabelBatches, objectID)
	if err != nil {
		return fmt.Errorf("failed to check batch %s: %w", b.ID, err)
	}
	if exists {
		return fmt.Errorf("batch %s already exists", b.ID)
	}
	raw, err := b.Marshal()
	if err != nil {
		return err
	}
	err = r.store.Put(ctx, storage.LabelBatches, objectID, raw)
	if err != nil {
		return fmt.Errorf("failed to write batch %s: %w", b.ID, err)
	}
	return nil
}

// IDs lists stored batch ids in creation order.
func (r *BatchRepository) IDs(ctx context.Context) ([]string, error) {
	objects, err := r.store.List(ctx, storage.LabelBatches)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	ids := make([]string, 0, len(objects))
	for _, obj := range objects {
		if IsBatchObject(obj) {
			ids = append(ids, strings.TrimSuffix(obj, ".json"))
		}
	}
	return ids, nil
}

// All loads every readable batch in id order. Malformed batches are logged and skipped.
// MissingStateError is returned when there are no batches at all.
func (r *BatchRepository) All(ctx context.Context) ([]*aggregate.Batch, error) {
	ids, err := r.IDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &MissingStateError{What: "exact batch"}
	}
	batches := make([]*aggregate.Batch, 0, len(ids))
	for _, id := range ids {
		raw, err := r.store.Fetch(ctx, storage.LabelBatches, id+".json")
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			// listed then removed
			continue
		} else if err != nil {
			return nil, fmt.Errorf("failed to fetch batch %s: %w", id, err)
		}
		b, err := aggregate.ParseBatch(id, raw)
		if err != nil {
			st.Logger.Warn().Err(err).Str("id", id).Msg("skipping malformed batch")
			st.WriteFileLog(st.ChLogPipelineErr, skipLog{Pipeline: "query", ID: id, Error: err.Error()})
			continue
		}
		batches = append(batches, b)
	}
	aggregate.SortBatches(batches)
	return batches, nil
}
