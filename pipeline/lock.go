package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/kvprovider"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/google/uuid"
)

// RunLock keeps runs of the same pipeline from overlapping.
type RunLock interface {
	// Acquire returns LockedError if the pipeline is already running.
	Acquire(ctx context.Context, pipeline string) (release func(), err error)
}

// LocalRunLock serialises runs within this process.
type LocalRunLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocalRunLock() *LocalRunLock {
	return &LocalRunLock{locks: map[string]*sync.Mutex{}}
}

func (l *LocalRunLock) Acquire(ctx context.Context, pipeline string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[pipeline]
	if !ok {
		m = &sync.Mutex{}
		l.locks[pipeline] = m
	}
	l.mu.Unlock()
	if !m.TryLock() {
		return nil, &LockedError{Pipeline: pipeline}
	}
	return m.Unlock, nil
}

// KVRunLock serialises runs across processes sharing a kv store.
// The lock expires after ttl so a crashed holder cannot block the pipeline forever.
type KVRunLock struct {
	kv  kvprovider.KVInterface
	ttl time.Duration
}

func NewKVRunLock(kv kvprovider.KVInterface, ttl time.Duration) *KVRunLock {
	return &KVRunLock{kv: kv, ttl: ttl}
}

func (l *KVRunLock) Acquire(ctx context.Context, pipeline string) (func(), error) {
	key := "lock." + pipeline
	token := []byte(uuid.NewString())
	ok, err := l.kv.SetNX(ctx, key, token, l.ttl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &LockedError{Pipeline: pipeline}
	}
	return func() {
		// a lock that expired mid run may now belong to someone else
		released, err := l.kv.DelIfEqual(context.Background(), key, token)
		if err != nil {
			st.Logger.Warn().Err(err).Str("pipeline", pipeline).Msg("failed to release run lock")
		} else if !released {
			st.Logger.Warn().Str("pipeline", pipeline).Msg("run lock expired before the run finished")
		}
	}, nil
}
