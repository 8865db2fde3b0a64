/*
Package ledger records which raw events a pipeline has already consumed.

Each pipeline owns its own ledger. The stream and batch pipelines run independently and
may disagree about which events they have seen.
*/
package ledger

//go:generate mockgen -source=ledger.go -destination=mocks/mock_ledger.go -package=mocks

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/kvprovider"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
)

const (
	PipelineStream = "stream"
	PipelineBatch  = "batch"
)

// Ledger is an append only set of consumed event ids.
type Ledger interface {
	// Append records ids as consumed. Ids already present are ignored.
	Append(ctx context.Context, ids ...string) error
	Contains(ctx context.Context, id string) (bool, error)
	// AllIDs returns every consumed id, sorted and unique.
	AllIDs(ctx context.Context) ([]string, error)
}

// Set loads the full ledger for repeated membership checks during a run.
func Set(ctx context.Context, l Ledger) (map[string]struct{}, error) {
	ids, err := l.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// NewFromSettings opens the configured ledger backend for a pipeline.
// The kv providers are only needed for the redis backend.
func NewFromSettings(cfg *st.LBLedger, pipeline string, kv *kvprovider.KVMulti) (Ledger, error) {
	if pipeline != PipelineStream && pipeline != PipelineBatch {
		return nil, fmt.Errorf("unknown pipeline '%s'", pipeline)
	}
	switch cfg.Backend {
	case "file":
		return NewFileLedger(filepath.Join(cfg.Path, pipeline, FileLedgerName))
	case "redis":
		if kv == nil {
			return nil, fmt.Errorf("redis ledger requires kv providers")
		}
		db := kv.StreamLedger
		if pipeline == PipelineBatch {
			db = kv.BatchLedger
		}
		return NewKVLedger(db, pipeline), nil
	case "sql":
		return OpenSQLLedger(cfg.SQL.Driver, cfg.SQL.DSN, pipeline)
	default:
		return nil, fmt.Errorf("unknown ledger backend '%s'", cfg.Backend)
	}
}
