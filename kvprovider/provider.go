package kvprovider

import (
	"context"
	"time"
)

// A KVInterface provides a fast key-value store. This is intended so we can write unit tests without connecting
// to redis.
type KVInterface interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	// SetNX sets key only if it does not exist, returning whether it was set.
	SetNX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error)
	/*Delete any number of keys and return the number of elements that were deleted and any errors.*/
	Del(ctx context.Context, keys ...string) (int64, error)
	// DelIfEqual deletes key only while it still holds value.
	DelIfEqual(ctx context.Context, key string, value []byte) (bool, error)
	// SAdd adds members to the set at key and returns how many were new.
	SAdd(ctx context.Context, key string, members ...string) (int64, error)
	SIsMember(ctx context.Context, key string, member string) (bool, error)
	SMembers(ctx context.Context, key string) ([]string, error)
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)
	GetDBSize(ctx context.Context) int64
}

type KVMulti struct {
	// Holds the set of event ids folded into the sketch
	StreamLedger KVInterface
	// Holds the set of event ids covered by exact batches
	BatchLedger KVInterface
	// Holds single writer locks for pipeline runs
	RunLocks KVInterface
}
