package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/dedupe"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/testdata"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

const topic = "leaderboard.events"

func setup(t *testing.T) (*provider.MemoryProvider, provider.ProducerInterface, storage.FileStorage) {
	prov := provider.NewMemoryProvider(5 * time.Millisecond)
	producer, err := prov.CreateProducer()
	require.Nil(t, err)
	store, err := storage.NewEmptyLocalStore(t.TempDir())
	require.Nil(t, err)
	return prov, producer, store
}

func TestHandle(t *testing.T) {
	prov, producer, store := setup(t)
	require.Nil(t, producer.Produce(topic, nil, testdata.RawEvent("evt-1", "A")))
	require.Nil(t, producer.Produce(topic, nil, testdata.RawEvent("evt-1", "A")))
	require.Nil(t, producer.Produce(topic, nil, testdata.GetEvent("truncated.json")))
	require.Nil(t, producer.Produce(topic, nil, testdata.GetEvent("legacy.json")))

	consumer, err := prov.CreateConsumer("ingest", topic, "earliest")
	require.Nil(t, err)
	in := NewIngester(consumer, store, dedupe.New(1024))

	results := []string{}
	for msg := consumer.Poll(); msg != nil; msg = consumer.Poll() {
		res, err := in.Handle(ctx, msg)
		require.Nil(t, err)
		results = append(results, res)
	}
	require.Equal(t, []string{ResultStored, ResultDuplicate, ResultMalformed, ResultStored}, results)

	ids, err := store.List(ctx, events.StoreLabel)
	require.Nil(t, err)
	require.Equal(t, []string{"5f1d2c3b-aa10-4e6f-8c2d-9b8e7f6a5d41.json", "evt-1.json"}, ids)

	// stored exactly as delivered
	raw, err := store.Fetch(ctx, events.StoreLabel, "5f1d2c3b-aa10-4e6f-8c2d-9b8e7f6a5d41.json")
	require.Nil(t, err)
	require.Equal(t, testdata.GetEvent("legacy.json"), raw)
}

func TestHandleWithoutFilter(t *testing.T) {
	prov, producer, store := setup(t)
	require.Nil(t, producer.Produce(topic, nil, testdata.RawEvent("evt-1", "A")))
	require.Nil(t, producer.Produce(topic, nil, testdata.RawEvent("evt-1", "A")))
	consumer, err := prov.CreateConsumer("ingest", topic, "earliest")
	require.Nil(t, err)
	in := NewIngester(consumer, store, nil)
	for msg := consumer.Poll(); msg != nil; msg = consumer.Poll() {
		res, err := in.Handle(ctx, msg)
		require.Nil(t, err)
		require.Equal(t, ResultStored, res)
	}
	ids, err := store.List(ctx, events.StoreLabel)
	require.Nil(t, err)
	require.Equal(t, []string{"evt-1.json"}, ids)
}

type failingStore struct {
	storage.FileStorage
}

func (f *failingStore) Put(ctx context.Context, label, id string, data []byte) error {
	return errors.New("disk full")
}

func TestRunStopsOnStoreFailure(t *testing.T) {
	prov, producer, store := setup(t)
	require.Nil(t, producer.Produce(topic, nil, testdata.RawEvent("evt-1", "A")))
	consumer, err := prov.CreateConsumer("ingest", topic, "earliest")
	require.Nil(t, err)
	seen := dedupe.New(1024)
	in := NewIngester(consumer, &failingStore{store}, seen)

	err = in.Run(ctx)
	require.ErrorContains(t, err, "disk full")
	// a redelivery must not be mistaken for a duplicate
	require.False(t, seen.Seen("evt-1"))

	// nothing was acked so a fresh consumer in the group sees it again
	consumer, err = prov.CreateConsumer("ingest", topic, "earliest")
	require.Nil(t, err)
	msg := consumer.Poll()
	require.NotNil(t, msg)
	res, err := NewIngester(consumer, store, nil).Handle(ctx, msg)
	require.Nil(t, err)
	require.Equal(t, ResultStored, res)
}

func TestRunStopsOnCancel(t *testing.T) {
	prov, _, store := setup(t)
	consumer, err := prov.CreateConsumer("ingest", topic, "earliest")
	require.Nil(t, err)
	cctx, cancel := context.WithCancel(ctx)
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	require.Nil(t, NewIngester(consumer, store, nil).Run(cctx))
	require.False(t, consumer.Ready())
}

func TestHandleRejectsPathLikeIds(t *testing.T) {
	prov, producer, store := setup(t)
	// a real batch already present next to the events label
	require.Nil(t, store.Put(ctx, storage.LabelBatches, "batch_00000000000000000001_aaaa.json", []byte(`{"batch_id":"batch_00000000000000000001_aaaa","created":1,"entries":[{"key":"A","count":1}]}`)))
	crafted := []string{
		`{"event_id": "../batches/batch_99999999999999999999_evil", "key": "evil", "entries": [{"key": "evil", "count": 1000000}]}`,
		`{"event_id": "../sketch/cms_state", "key": "evil"}`,
		`{"event_id": "a/b", "key": "evil"}`,
	}
	for _, raw := range crafted {
		require.Nil(t, producer.Produce(topic, nil, []byte(raw)))
	}
	require.Nil(t, producer.Produce(topic, nil, testdata.RawEvent("evt-1", "A")))

	consumer, err := prov.CreateConsumer("ingest", topic, "earliest")
	require.Nil(t, err)
	in := NewIngester(consumer, store, dedupe.New(1024))
	results := []string{}
	for msg := consumer.Poll(); msg != nil; msg = consumer.Poll() {
		res, err := in.Handle(ctx, msg)
		require.Nil(t, err)
		results = append(results, res)
	}
	require.Equal(t, []string{ResultMalformed, ResultMalformed, ResultMalformed, ResultStored}, results)

	batches, err := store.List(ctx, storage.LabelBatches)
	require.Nil(t, err)
	require.Equal(t, []string{"batch_00000000000000000001_aaaa.json"}, batches)
	state, err := store.List(ctx, storage.LabelSketch)
	require.Nil(t, err)
	require.Empty(t, state)
	ids, err := store.List(ctx, events.StoreLabel)
	require.Nil(t, err)
	require.Equal(t, []string{"evt-1.json"}, ids)
}

func TestRunContinuesPastPathLikeIds(t *testing.T) {
	prov, producer, store := setup(t)
	require.Nil(t, producer.Produce(topic, nil, []byte(`{"event_id": "a/b", "key": "evil"}`)))
	require.Nil(t, producer.Produce(topic, nil, testdata.RawEvent("evt-2", "B")))
	consumer, err := prov.CreateConsumer("ingest", topic, "earliest")
	require.Nil(t, err)

	runCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	require.Nil(t, NewIngester(consumer, store, nil).Run(runCtx))

	ids, err := store.List(ctx, events.StoreLabel)
	require.Nil(t, err)
	require.Equal(t, []string{"evt-2.json"}, ids)
}
