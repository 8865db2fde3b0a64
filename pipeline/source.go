package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// rawEvent is a stored event ready to fold, identified by its object.
type rawEvent struct {
	// ID is the ledger id, the object id without its .json suffix
	ID  string
	Key string
}

type skipLog struct {
	Pipeline string `json:"pipeline"`
	ID       string `json:"id"`
	Error    string `json:"error"`
}

// unseenEvents reads every stored event whose id is not in seen, in sorted id order.
// Malformed records are logged and returned as skipped; they are not consumed so they
// are reported again next run.
func unseenEvents(ctx context.Context, store storage.FileStorage, pipeline string, seen map[string]struct{}) ([]rawEvent, []string, error) {
	objects, err := store.List(ctx, events.StoreLabel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list raw events: %w", err)
	}
	sort.Strings(objects)
	found := []rawEvent{}
	skipped := []string{}
	for _, obj := range objects {
		id := events.EventID(obj)
		if id == obj {
			// not a .json record
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		raw, err := store.Fetch(ctx, events.StoreLabel, obj)
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			continue
		} else if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch raw event %s: %w", id, err)
		}
		ev, err := events.Parse(raw)
		if err != nil {
			st.Logger.Warn().Err(err).Str("pipeline", pipeline).Str("id", id).Msg("skipping malformed event")
			st.WriteFileLog(st.ChLogPipelineErr, skipLog{Pipeline: pipeline, ID: id, Error: err.Error()})
			prom.PipelineMalformedRecords.WithLabelValues(pipeline).Inc()
			skipped = append(skipped, id)
			continue
		}
		found = append(found, rawEvent{ID: id, Key: ev.Key})
	}
	return found, skipped, nil
}

// Result reports what a single pipeline run did.
type Result struct {
	Processed int      `json:"processed"`
	Skipped   []string `json:"skipped"`
	// BatchID is set when a batch run wrote a batch
	BatchID string `json:"batch_id,omitempty"`
}

func (r Result) outcome() string {
	if r.Processed == 0 {
		return "noop"
	}
	return "updated"
}
