package storage

import (
	"context"
	"errors"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/allegro/bigcache/v3"
)

/* Adds memory cache on to another store type. */

// Maximum size of an object that can be in a shard as a fraction. e.g 0.5 == 50% of the maximum shard size.
// Bigcache buffers the whole object per shard on set so large objects cost ram on every shard.
const maxFractionalUsageForOneObjectInAShard = 0.5

// sketch state is rewritten by other processes so is never cached
var uncachedLabels = map[string]bool{LabelSketch: true}

type StoreCache struct {
	cache               *bigcache.BigCache
	store               FileStorage
	maxObjectSetToShard int
}

// NewDataCache wraps store with a cache of maxsize MB split across shards.
func NewDataCache(maxsize, ttl, shards int, store FileStorage) (FileStorage, error) {
	config := bigcache.DefaultConfig(time.Duration(ttl) * time.Second)
	config.HardMaxCacheSize = maxsize
	config.Verbose = false
	config.Shards = shards
	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, err
	}
	shardSizeBytes := float32(config.HardMaxCacheSize*1024*1024) / float32(config.Shards)
	maxObjectSetToShard := int(maxFractionalUsageForOneObjectInAShard * shardSizeBytes)
	return &StoreCache{cache, store, maxObjectSetToShard}, nil
}

func (c *StoreCache) remember(label, id string, data []byte) {
	if uncachedLabels[label] || len(data) > c.maxObjectSetToShard {
		return
	}
	err := c.cache.Set(objectPath(label, id), data)
	// failing to cache is not terminal, just log
	if err != nil {
		st.Logger.Warn().Err(err).Str("id", id).Int("size", len(data)).Msg("ignoring data cache fail")
	}
}

func (c *StoreCache) Put(ctx context.Context, label, id string, data []byte) error {
	err := c.store.Put(ctx, label, id, data)
	if err != nil {
		return err
	}
	c.remember(label, id, data)
	return nil
}

func (c *StoreCache) Fetch(ctx context.Context, label, id string) ([]byte, error) {
	var err error
	startTime := time.Now().UnixNano()
	if !uncachedLabels[label] {
		prom.CacheLookups.Inc()
		ent, cerr := c.cache.Get(objectPath(label, id))
		if cerr == nil {
			prom.CacheHits.Inc()
			reportStorageOpMetric(startTime, "cache-fetch", nil)
			return ent, nil
		}
	}
	defer func() {
		reportStorageOpMetric(startTime, "cache-fetch-miss", err)
	}()
	data, err := c.store.Fetch(ctx, label, id)
	if err != nil {
		return nil, err
	}
	c.remember(label, id, data)
	return data, nil
}

func (c *StoreCache) Exists(ctx context.Context, label, id string) (bool, error) {
	if !uncachedLabels[label] {
		prom.CacheLookups.Inc()
		if _, err := c.cache.Get(objectPath(label, id)); err == nil {
			prom.CacheHits.Inc()
			return true, nil
		}
	}
	return c.store.Exists(ctx, label, id)
}

func (c *StoreCache) List(ctx context.Context, label string) ([]string, error) {
	return c.store.List(ctx, label)
}

func (c *StoreCache) Delete(ctx context.Context, label, id string) (bool, error) {
	err := c.cache.Delete(objectPath(label, id))
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		st.Logger.Warn().Err(err).Str("id", id).Msg("failed to delete from cache")
	}
	return c.store.Delete(ctx, label, id)
}
