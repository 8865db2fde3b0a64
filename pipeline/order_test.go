package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger/mocks"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func TestStreamStateSavedBeforeLedger(t *testing.T) {
	f := newFixture(t)
	f.put(t, "e1", "a")
	f.put(t, "e2", "b")

	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	gomock.InOrder(
		l.EXPECT().AllIDs(gomock.Any()).Return([]string{}, nil),
		l.EXPECT().Append(gomock.Any(), "e1", "e2").DoAndReturn(func(_ context.Context, ids ...string) error {
			exists, err := f.store.Exists(ctx, storage.LabelSketch, SketchStateID)
			require.Nil(t, err)
			require.True(t, exists, "sketch must be saved before the ledger")
			return nil
		}),
	)
	res, err := NewStreamUpdater(f.store, l, f.states, f.lock).Run(ctx)
	require.Nil(t, err)
	require.Equal(t, 2, res.Processed)
}

func TestStreamLedgerFailureReplays(t *testing.T) {
	f := newFixture(t)
	f.put(t, "e1", "a")

	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().AllIDs(gomock.Any()).Return([]string{}, nil)
	l.EXPECT().Append(gomock.Any(), "e1").Return(errors.New("disk full"))
	_, err := NewStreamUpdater(f.store, l, f.states, f.lock).Run(ctx)
	require.ErrorContains(t, err, "disk full")

	// state holds the fold but the event is not consumed, so it counts again
	s, err := f.states.Load(ctx)
	require.Nil(t, err)
	require.Equal(t, uint64(1), s.Total())
	res, err := f.stream().Run(ctx)
	require.Nil(t, err)
	require.Equal(t, 1, res.Processed)
	s, err = f.states.Load(ctx)
	require.Nil(t, err)
	require.Equal(t, uint64(2), s.Total())
}

func TestBatchWrittenBeforeLedger(t *testing.T) {
	f := newFixture(t)
	f.put(t, "e1", "a")

	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	gomock.InOrder(
		l.EXPECT().AllIDs(gomock.Any()).Return([]string{}, nil),
		l.EXPECT().Append(gomock.Any(), "e1").DoAndReturn(func(_ context.Context, ids ...string) error {
			batchIDs, err := f.batches.IDs(ctx)
			require.Nil(t, err)
			require.Len(t, batchIDs, 1, "batch must be written before the ledger")
			return nil
		}),
	)
	res, err := NewBatchAggregationJob(f.store, l, f.batches, NewBatchIDGenerator(), f.lock).Run(ctx)
	require.Nil(t, err)
	require.Equal(t, 1, res.Processed)
}

func TestLedgerReadFailureTouchesNothing(t *testing.T) {
	f := newFixture(t)
	f.put(t, "e1", "a")

	ctrl := gomock.NewController(t)
	l := mocks.NewMockLedger(ctrl)
	l.EXPECT().AllIDs(gomock.Any()).Return(nil, errors.New("unavailable")).Times(2)
	_, err := NewStreamUpdater(f.store, l, f.states, f.lock).Run(ctx)
	require.ErrorContains(t, err, "unavailable")
	_, err = NewBatchAggregationJob(f.store, l, f.batches, NewBatchIDGenerator(), f.lock).Run(ctx)
	require.ErrorContains(t, err, "unavailable")

	exists, err := f.store.Exists(ctx, storage.LabelSketch, SketchStateID)
	require.Nil(t, err)
	require.False(t, exists)
	ids, err := f.batches.IDs(ctx)
	require.Nil(t, err)
	require.Empty(t, ids)
}
