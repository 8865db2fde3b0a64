package kvprovider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestMemoryProvider(t *testing.T) {
	kvImplementationBaseTests(t, newMemoryProvider())
}

func TestMemoryProviders(t *testing.T) {
	multi, err := NewMemoryProviders()
	require.Nil(t, err)
	_, err = multi.StreamLedger.SAdd(ctx, "ids", "1")
	require.Nil(t, err)
	// each provider is an independent db
	member, err := multi.BatchLedger.SIsMember(ctx, "ids", "1")
	require.Nil(t, err)
	require.False(t, member)
	require.Equal(t, int64(1), multi.StreamLedger.GetDBSize(ctx))
	require.Equal(t, int64(0), multi.RunLocks.GetDBSize(ctx))
}

func TestMemoryProviderExpiry(t *testing.T) {
	prov := newMemoryProvider()
	now := time.Unix(1718000000, 0)
	prov.now = func() time.Time { return now }

	ok, err := prov.SetNX(ctx, "lock", []byte("a"), time.Minute)
	require.Nil(t, err)
	require.True(t, ok)

	now = now.Add(59 * time.Second)
	ok, err = prov.SetNX(ctx, "lock", []byte("b"), time.Minute)
	require.Nil(t, err)
	require.False(t, ok)

	now = now.Add(time.Second)
	val, err := prov.GetBytes(ctx, "lock")
	require.Nil(t, err)
	require.Nil(t, val)
	ok, err = prov.SetNX(ctx, "lock", []byte("b"), time.Minute)
	require.Nil(t, err)
	require.True(t, ok)
	// expired holders can no longer release
	ok, err = prov.DelIfEqual(ctx, "lock", []byte("a"))
	require.Nil(t, err)
	require.False(t, ok)
}

func TestMemoryProviderWrongType(t *testing.T) {
	prov := newMemoryProvider()
	require.Nil(t, prov.Set(ctx, "k", []byte("v"), 0))
	_, err := prov.SAdd(ctx, "k", "a")
	require.NotNil(t, err)
	_, err = prov.SAdd(ctx, "s", "a")
	require.Nil(t, err)
	require.NotNil(t, prov.Set(ctx, "s", []byte("v"), 0))
}
