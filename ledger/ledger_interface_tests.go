package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// LedgerImplementationBaseTests should pass for every Ledger backend.
func LedgerImplementationBaseTests(t *testing.T, l Ledger) {
	ctx := context.Background()

	ids, err := l.AllIDs(ctx)
	require.Nil(t, err)
	require.Empty(t, ids)
	ok, err := l.Contains(ctx, "evt-1")
	require.Nil(t, err)
	require.False(t, ok)

	// empty append writes nothing
	require.Nil(t, l.Append(ctx))

	require.Nil(t, l.Append(ctx, "evt-3", "evt-1"))
	require.Nil(t, l.Append(ctx, "evt-2", "evt-1", "evt-2"))

	for _, id := range []string{"evt-1", "evt-2", "evt-3"} {
		ok, err = l.Contains(ctx, id)
		require.Nil(t, err)
		require.True(t, ok, id)
	}
	ok, err = l.Contains(ctx, "evt-4")
	require.Nil(t, err)
	require.False(t, ok)

	ids, err = l.AllIDs(ctx)
	require.Nil(t, err)
	require.Equal(t, []string{"evt-1", "evt-2", "evt-3"}, ids)

	set, err := Set(ctx, l)
	require.Nil(t, err)
	require.Len(t, set, 3)
	require.Contains(t, set, "evt-2")
}
