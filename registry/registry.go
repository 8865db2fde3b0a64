/*
Package registry supplies the candidate key universe ranked by leaderboard queries.
*/
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
)

// KeyRegistry lists every key known to the system.
type KeyRegistry interface {
	// AllKnownKeys returns unique keys in sorted order.
	AllKnownKeys(ctx context.Context) ([]string, error)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StaticRegistry is a fixed key list.
type StaticRegistry []string

func (r StaticRegistry) AllKnownKeys(ctx context.Context) ([]string, error) {
	set := make(map[string]struct{}, len(r))
	for _, k := range r {
		set[k] = struct{}{}
	}
	return sortedKeys(set), nil
}

// LedgerRegistry resolves every consumed event id back to its key.
// Events consumed by either pipeline are included.
// Raw events are immutable so each id is fetched once and its key remembered.
type LedgerRegistry struct {
	store   storage.FileStorage
	ledgers []ledger.Ledger

	mu sync.Mutex
	// event id to key, only for ids that resolved
	resolved map[string]string
}

func NewLedgerRegistry(store storage.FileStorage, ledgers ...ledger.Ledger) *LedgerRegistry {
	return &LedgerRegistry{store: store, ledgers: ledgers, resolved: map[string]string{}}
}

func (r *LedgerRegistry) AllKnownKeys(ctx context.Context) ([]string, error) {
	ids := map[string]struct{}{}
	for _, l := range r.ledgers {
		consumed, err := l.AllIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		for _, id := range consumed {
			ids[id] = struct{}{}
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := map[string]struct{}{}
	for _, id := range sortedKeys(ids) {
		if key, ok := r.resolved[id]; ok {
			keys[key] = struct{}{}
			continue
		}
		raw, err := r.store.Fetch(ctx, events.StoreLabel, events.ObjectID(id))
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			st.Logger.Warn().Str("id", id).Msg("consumed event is missing from the event store")
			continue
		} else if err != nil {
			return nil, fmt.Errorf("failed to fetch event %s: %w", id, err)
		}
		ev, err := events.Parse(raw)
		if err != nil {
			st.Logger.Warn().Err(err).Str("id", id).Msg("skipping malformed event")
			continue
		}
		r.resolved[id] = ev.Key
		keys[ev.Key] = struct{}{}
	}
	return sortedKeys(keys), nil
}

// BatchRegistry lists keys appearing in any exact batch.
type BatchRegistry struct {
	batches *pipeline.BatchRepository
}

func NewBatchRegistry(batches *pipeline.BatchRepository) *BatchRegistry {
	return &BatchRegistry{batches: batches}
}

func (r *BatchRegistry) AllKnownKeys(ctx context.Context) ([]string, error) {
	all, err := r.batches.All(ctx)
	var missing *pipeline.MissingStateError
	if errors.As(err, &missing) {
		return []string{}, nil
	} else if err != nil {
		return nil, err
	}
	keys := map[string]struct{}{}
	for _, b := range all {
		for _, e := range b.Entries {
			keys[e.Key] = struct{}{}
		}
	}
	return sortedKeys(keys), nil
}

// UnionRegistry combines registries.
type UnionRegistry []KeyRegistry

func (r UnionRegistry) AllKnownKeys(ctx context.Context) ([]string, error) {
	keys := map[string]struct{}{}
	for _, reg := range r {
		found, err := reg.AllKnownKeys(ctx)
		if err != nil {
			return nil, err
		}
		for _, k := range found {
			keys[k] = struct{}{}
		}
	}
	return sortedKeys(keys), nil
}
