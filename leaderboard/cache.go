package leaderboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/metrics"
	"github.com/eko/gocache/lib/v4/store"
	bigcache_store "github.com/eko/gocache/store/bigcache/v4"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
)

// CachedService remembers exact answers until the set of batches changes.
// Approximate answers move with every stream update so they are never cached.
type CachedService struct {
	*Service
	batches *pipeline.BatchRepository
	manager cache.CacheInterface[[]byte]
	ttl     time.Duration
}

// NewCachedService wraps svc with a bigcache backed result cache of sizeBytes.
func NewCachedService(svc *Service, sizeBytes, ttlSeconds int) (*CachedService, error) {
	if sizeBytes <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", sizeBytes)
	}
	ttl := time.Second * time.Duration(ttlSeconds)
	c := bigcache.DefaultConfig(ttl)
	c.HardMaxCacheSize = max(sizeBytes/1048576, 1) // in MB
	c.Verbose = false
	c.Shards = 16
	client, err := bigcache.New(context.Background(), c)
	if err != nil {
		return nil, err
	}
	cacheClient := bigcache_store.NewBigcache(client)
	customRegistry := prometheus.NewRegistry()
	promMetrics := metrics.NewPrometheus("leaderboard_query", metrics.WithRegisterer(customRegistry))
	manager := cache.NewMetric[[]byte](promMetrics, cache.New[[]byte](cacheClient))
	return &CachedService{Service: svc, batches: svc.batches, manager: manager, ttl: ttl}, nil
}

// NewQuerierFromSettings adds the result cache when one is configured.
func NewQuerierFromSettings(svc *Service) (Querier, error) {
	if st.Settings.Query.CacheSizeBytes == 0 {
		return svc, nil
	}
	return NewCachedService(svc, int(st.Settings.Query.CacheSizeBytes), st.Settings.Query.CacheTTLSeconds)
}

// cacheKey changes whenever a batch is added or removed.
func (c *CachedService) cacheKey(ctx context.Context, k int) (string, error) {
	ids, err := c.batches.IDs(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%d.%d.%x", ModeExact, k, len(ids), xxhash.Sum64String(strings.Join(ids, "\n"))), nil
}

func (c *CachedService) TopK(ctx context.Context, mode string, k int) (*Response, error) {
	if mode != ModeExact || validate(mode, k) != nil {
		return c.Service.TopK(ctx, mode, k)
	}
	key, err := c.cacheKey(ctx, k)
	if err != nil {
		return nil, err
	}
	cached, err := c.fetch(ctx, key)
	if err != nil {
		st.Logger.Warn().Err(err).Msg("query cache fetch failed")
	} else if cached != nil {
		return cached, nil
	}
	resp, err := c.Service.TopK(ctx, mode, k)
	if err != nil {
		return nil, err
	}
	if !resp.Missing {
		err = c.put(ctx, key, resp)
		if err != nil {
			st.Logger.Warn().Err(err).Msg("query cache put failed")
		}
	}
	return resp, nil
}

func (c *CachedService) put(ctx context.Context, key string, resp *Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.manager.Set(ctx, key, raw, store.WithExpiration(c.ttl))
}

// fetch returns nil on a cache miss.
func (c *CachedService) fetch(ctx context.Context, key string) (*Response, error) {
	val, err := c.manager.Get(ctx, key)
	if err != nil {
		// cache miss
		if strings.Contains(err.Error(), "not found") {
			return nil, nil
		}
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	var resp Response
	err = json.Unmarshal(val, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
