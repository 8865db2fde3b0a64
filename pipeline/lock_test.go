package pipeline

import (
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/kvprovider"
	"github.com/stretchr/testify/require"
)

func TestLocalRunLock(t *testing.T) {
	l := NewLocalRunLock()
	release, err := l.Acquire(ctx, "stream")
	require.Nil(t, err)
	_, err = l.Acquire(ctx, "stream")
	var locked *LockedError
	require.ErrorAs(t, err, &locked)

	other, err := l.Acquire(ctx, "batch")
	require.Nil(t, err)
	other()

	release()
	release, err = l.Acquire(ctx, "stream")
	require.Nil(t, err)
	release()
}

func TestKVRunLock(t *testing.T) {
	kv, err := kvprovider.NewMemoryProviders()
	require.Nil(t, err)
	l := NewKVRunLock(kv.RunLocks, time.Minute)

	release, err := l.Acquire(ctx, "stream")
	require.Nil(t, err)
	_, err = l.Acquire(ctx, "stream")
	var locked *LockedError
	require.ErrorAs(t, err, &locked)

	release()
	release, err = l.Acquire(ctx, "stream")
	require.Nil(t, err)
	release()
}

func TestKVRunLockReleaseKeepsNewHolder(t *testing.T) {
	kv, err := kvprovider.NewMemoryProviders()
	require.Nil(t, err)
	l := NewKVRunLock(kv.RunLocks, time.Minute)

	stale, err := l.Acquire(ctx, "batch")
	require.Nil(t, err)
	// simulate expiry then takeover by another process
	_, err = kv.RunLocks.Del(ctx, "lock.batch")
	require.Nil(t, err)
	current, err := l.Acquire(ctx, "batch")
	require.Nil(t, err)

	stale()
	_, err = l.Acquire(ctx, "batch")
	var locked *LockedError
	require.ErrorAs(t, err, &locked)
	current()
}
