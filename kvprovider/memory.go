package kvprovider

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

/*Initialise all in memory providers.*/
func NewMemoryProviders() (*KVMulti, error) {
	return &KVMulti{
		StreamLedger: newMemoryProvider(),
		BatchLedger:  newMemoryProvider(),
		RunLocks:     newMemoryProvider(),
	}, nil
}

type memoryValue struct {
	value   []byte
	expires time.Time
}

type MemoryProvider struct {
	Mem  map[string]memoryValue
	Sets map[string]map[string]struct{}
	mu   sync.Mutex
	now  func() time.Time
}

func newMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		Mem:  make(map[string]memoryValue),
		Sets: make(map[string]map[string]struct{}),
		now:  time.Now,
	}
}

// live returns the value at key, dropping it if expired. Caller holds the lock.
func (prov *MemoryProvider) live(key string) ([]byte, bool) {
	val, ok := prov.Mem[key]
	if !ok {
		return nil, false
	}
	if !val.expires.IsZero() && !prov.now().Before(val.expires) {
		delete(prov.Mem, key)
		return nil, false
	}
	return val.value, true
}

func (prov *MemoryProvider) GetDBSize(ctx context.Context) int64 {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	return int64(len(prov.Mem) + len(prov.Sets))
}

func (prov *MemoryProvider) GetBytes(ctx context.Context, key string) ([]byte, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	val, ok := prov.live(key)
	if !ok {
		return nil, nil
	}
	return val, nil
}

func (prov *MemoryProvider) set(key string, value []byte, expiration time.Duration) {
	v := memoryValue{value: append([]byte{}, value...)}
	if expiration > 0 {
		v.expires = prov.now().Add(expiration)
	}
	prov.Mem[key] = v
}

func (prov *MemoryProvider) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	if _, ok := prov.Sets[key]; ok {
		return errors.New("WRONGTYPE key holds a set")
	}
	prov.set(key, value, expiration)
	return nil
}

func (prov *MemoryProvider) SetNX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	if _, ok := prov.live(key); ok {
		return false, nil
	}
	prov.set(key, value, expiration)
	return true, nil
}

func (prov *MemoryProvider) Del(ctx context.Context, keys ...string) (int64, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	var deletedKeys int64
	for _, k := range keys {
		if _, ok := prov.live(k); ok {
			delete(prov.Mem, k)
			deletedKeys += 1
		}
		if _, ok := prov.Sets[k]; ok {
			delete(prov.Sets, k)
			deletedKeys += 1
		}
	}
	return deletedKeys, nil
}

func (prov *MemoryProvider) DelIfEqual(ctx context.Context, key string, value []byte) (bool, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	current, ok := prov.live(key)
	if !ok || string(current) != string(value) {
		return false, nil
	}
	delete(prov.Mem, key)
	return true, nil
}

func (prov *MemoryProvider) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	if _, ok := prov.live(key); ok {
		return 0, errors.New("WRONGTYPE key holds a value")
	}
	set, ok := prov.Sets[key]
	if !ok {
		set = map[string]struct{}{}
		prov.Sets[key] = set
	}
	var added int64
	for _, m := range members {
		if _, ok := set[m]; !ok {
			set[m] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (prov *MemoryProvider) SIsMember(ctx context.Context, key string, member string) (bool, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	_, ok := prov.Sets[key][member]
	return ok, nil
}

func (prov *MemoryProvider) SMembers(ctx context.Context, key string) ([]string, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	members := make([]string, 0, len(prov.Sets[key]))
	for m := range prov.Sets[key] {
		members = append(members, m)
	}
	return members, nil
}

func (prov *MemoryProvider) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	prov.mu.Lock()
	defer prov.mu.Unlock()
	// blindly assume globs are prefix or postfix wildcarded
	filter := strings.ReplaceAll(match, "*", "")
	keys := []string{}
	for k := range prov.Mem {
		if _, ok := prov.live(k); ok && strings.Contains(k, filter) {
			keys = append(keys, k)
		}
	}
	for k := range prov.Sets {
		if strings.Contains(k, filter) {
			keys = append(keys, k)
		}
	}
	return keys, 0, nil
}
