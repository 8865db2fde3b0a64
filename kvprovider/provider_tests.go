package kvprovider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// kvImplementationBaseTests should pass for every provider as they should function identically.
func kvImplementationBaseTests(t *testing.T, prov KVInterface) {
	ctx := context.Background()

	keys, cursor, err := prov.Scan(ctx, 0, "domain.*", 1000)
	require.Nil(t, err)
	require.Equal(t, cursor, uint64(0))
	require.Equal(t, keys, []string{})

	res, err := prov.GetBytes(ctx, "domain.test")
	require.Nil(t, err)
	require.Nil(t, res)

	err = prov.Set(ctx, "domain.test", []byte("my message"), 0)
	require.Nil(t, err)
	res, err = prov.GetBytes(ctx, "domain.test")
	require.Nil(t, err)
	require.Equal(t, res, []byte("my message"))

	// set if not exists
	ok, err := prov.SetNX(ctx, "domain.lock", []byte("owner-1"), time.Minute)
	require.Nil(t, err)
	require.True(t, ok)
	ok, err = prov.SetNX(ctx, "domain.lock", []byte("owner-2"), time.Minute)
	require.Nil(t, err)
	require.False(t, ok)

	// only the holder may release
	ok, err = prov.DelIfEqual(ctx, "domain.lock", []byte("owner-2"))
	require.Nil(t, err)
	require.False(t, ok)
	ok, err = prov.DelIfEqual(ctx, "domain.lock", []byte("owner-1"))
	require.Nil(t, err)
	require.True(t, ok)
	ok, err = prov.SetNX(ctx, "domain.lock", []byte("owner-2"), time.Minute)
	require.Nil(t, err)
	require.True(t, ok)

	// sets
	added, err := prov.SAdd(ctx, "domain.set", "a", "b", "a")
	require.Nil(t, err)
	require.Equal(t, int64(2), added)
	added, err = prov.SAdd(ctx, "domain.set", "b", "c")
	require.Nil(t, err)
	require.Equal(t, int64(1), added)
	added, err = prov.SAdd(ctx, "domain.set")
	require.Nil(t, err)
	require.Equal(t, int64(0), added)
	member, err := prov.SIsMember(ctx, "domain.set", "c")
	require.Nil(t, err)
	require.True(t, member)
	member, err = prov.SIsMember(ctx, "domain.set", "z")
	require.Nil(t, err)
	require.False(t, member)
	members, err := prov.SMembers(ctx, "domain.set")
	require.Nil(t, err)
	require.ElementsMatch(t, []string{"a", "b", "c"}, members)
	members, err = prov.SMembers(ctx, "domain.missing")
	require.Nil(t, err)
	require.Empty(t, members)

	keys, cursor, err = prov.Scan(ctx, 0, "domain.*", 1000)
	require.Nil(t, err)
	require.Equal(t, cursor, uint64(0))
	require.ElementsMatch(t, keys, []string{"domain.test", "domain.lock", "domain.set"})

	deleted, err := prov.Del(ctx, "domain.test", "domain.lock", "domain.set", "domain.missing")
	require.Nil(t, err)
	require.Equal(t, int64(3), deleted)
	keys, _, err = prov.Scan(ctx, 0, "domain.*", 1000)
	require.Nil(t, err)
	require.Empty(t, keys)
}
