package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/aggregate"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger/mocks"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/testdata"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestStaticRegistry(t *testing.T) {
	keys, err := StaticRegistry{"b", "a", "b"}.AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"a", "b"}, keys)

	keys, err = StaticRegistry{}.AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Empty(t, keys)
}

func TestLedgerRegistry(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewEmptyLocalStore(filepath.Join(dir, "store"))
	require.Nil(t, err)
	for id, key := range map[string]string{"e1": "song-1", "e2": "song-2", "e3": "song-1", "e4": "song-3"} {
		require.Nil(t, store.Put(ctx, events.StoreLabel, events.ObjectID(id), testdata.RawEvent(id, key)))
	}
	require.Nil(t, store.Put(ctx, events.StoreLabel, "bad.json", []byte(`{`)))

	stream, err := ledger.NewFileLedger(filepath.Join(dir, "stream", ledger.FileLedgerName))
	require.Nil(t, err)
	batch, err := ledger.NewFileLedger(filepath.Join(dir, "batch", ledger.FileLedgerName))
	require.Nil(t, err)
	require.Nil(t, stream.Append(ctx, "e1", "e2", "bad"))
	// e4 is only known to the batch pipeline, gone is not in the store at all
	require.Nil(t, batch.Append(ctx, "e1", "e4", "gone"))

	keys, err := NewLedgerRegistry(store, stream, batch).AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"song-1", "song-2", "song-3"}, keys)
}

type countingStore struct {
	storage.FileStorage
	fetches int
}

func (c *countingStore) Fetch(ctx context.Context, label, id string) ([]byte, error) {
	c.fetches++
	return c.FileStorage.Fetch(ctx, label, id)
}

func TestLedgerRegistryFetchesEachEventOnce(t *testing.T) {
	dir := t.TempDir()
	local, err := storage.NewEmptyLocalStore(filepath.Join(dir, "store"))
	require.Nil(t, err)
	store := &countingStore{FileStorage: local}
	for id, key := range map[string]string{"e1": "song-1", "e2": "song-2", "e3": "song-3"} {
		require.Nil(t, store.Put(ctx, events.StoreLabel, events.ObjectID(id), testdata.RawEvent(id, key)))
	}
	stream, err := ledger.NewFileLedger(filepath.Join(dir, "stream", ledger.FileLedgerName))
	require.Nil(t, err)
	require.Nil(t, stream.Append(ctx, "e1", "e2", "late"))
	reg := NewLedgerRegistry(store, stream)

	keys, err := reg.AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"song-1", "song-2"}, keys)
	require.Equal(t, 3, store.fetches)

	// unresolved ids are retried, resolved ones are not fetched again
	require.Nil(t, store.Put(ctx, events.StoreLabel, "late.json", testdata.RawEvent("late", "song-4")))
	require.Nil(t, stream.Append(ctx, "e3"))
	keys, err = reg.AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"song-1", "song-2", "song-3", "song-4"}, keys)
	require.Equal(t, 5, store.fetches)

	keys, err = reg.AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Len(t, keys, 4)
	require.Equal(t, 5, store.fetches)
}

func TestLedgerRegistryLedgerFailure(t *testing.T) {
	store, err := storage.NewEmptyLocalStore(t.TempDir())
	require.Nil(t, err)
	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().AllIDs(gomock.Any()).Return(nil, errors.New("ledger offline"))

	_, err = NewLedgerRegistry(store, l).AllKnownKeys(ctx)
	require.ErrorContains(t, err, "ledger offline")
}

func TestBatchAndUnionRegistry(t *testing.T) {
	store, err := storage.NewEmptyLocalStore(t.TempDir())
	require.Nil(t, err)
	batches := pipeline.NewBatchRepository(store)

	keys, err := NewBatchRegistry(batches).AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Empty(t, keys)

	require.Nil(t, batches.Write(ctx, aggregate.NewBatch("batch_1", time.Unix(1, 0), aggregate.Counts{"B": 1, "A": 2})))
	require.Nil(t, batches.Write(ctx, aggregate.NewBatch("batch_2", time.Unix(2, 0), aggregate.Counts{"C": 1, "A": 2})))
	keys, err = NewBatchRegistry(batches).AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"A", "B", "C"}, keys)

	keys, err = UnionRegistry{NewBatchRegistry(batches), StaticRegistry{"D", "A"}}.AllKnownKeys(ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"A", "B", "C", "D"}, keys)
}
