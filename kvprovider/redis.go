package kvprovider

import (
	"context"
	"errors"
	"time"

	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"

	"github.com/redis/go-redis/v9"
)

/*Initialise all redis providers.*/
func NewRedisProviders() (*KVMulti, error) {
	var err error
	ret := KVMulti{}
	// be very careful about changing the db number
	ret.StreamLedger, err = newRedisProvider(0)
	if err != nil {
		return nil, err
	}
	// be very careful about changing the db number
	ret.BatchLedger, err = newRedisProvider(1)
	if err != nil {
		return nil, err
	}
	// be very careful about changing the db number
	ret.RunLocks, err = newRedisProvider(2)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Must not use one redis deployment with multiple leaderboards

type RedisProvider struct {
	Redis *redis.Client
}

// deletes KEYS[1] only while it holds ARGV[1]
var delIfEqual = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func newRedisProvider(dbnum int) (*RedisProvider, error) {
	if len(st.Settings.Redis.Endpoint) == 0 {
		return nil, errors.New("no endpoint for redis")
	}
	timeout := time.Second * time.Duration(st.Settings.Redis.ConnectionTimeoutSeconds)
	rdb := redis.NewClient(&redis.Options{
		Addr:         st.Settings.Redis.Endpoint,
		Username:     st.Settings.Redis.Username,
		Password:     st.Settings.Redis.Password,
		MaxRetries:   st.Settings.Redis.MaxRetries,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		DB:           dbnum,
	})
	return &RedisProvider{Redis: rdb}, nil
}

func retry[T any](genericCall func() (T, error)) (T, error) {
	var val T
	var err error
	attempts := max(st.Settings.Redis.MaxRetries, 1)
	for i := 0; i < attempts; i++ {
		val, err = genericCall()
		// a missing key is an answer, not a failure
		if err == nil || errors.Is(err, redis.Nil) {
			return val, err
		}
		time.Sleep(time.Second * time.Duration(st.Settings.Redis.ConnectionTimeoutSeconds))
	}
	return val, err
}

func retryThree[T any, Z any](genericCall func() (T, Z, error)) (T, Z, error) {
	var val T
	var val2 Z
	var err error
	attempts := max(st.Settings.Redis.MaxRetries, 1)
	for i := 0; i < attempts; i++ {
		val, val2, err = genericCall()
		if err == nil {
			return val, val2, err
		}
		time.Sleep(time.Second * time.Duration(st.Settings.Redis.ConnectionTimeoutSeconds))
	}
	return val, val2, err
}

func (prov *RedisProvider) GetDBSize(ctx context.Context) int64 {
	val, _ := retry(func() (int64, error) { return prov.Redis.DBSize(ctx).Result() })
	return val
}

// GetBytes returns nil without error when the key does not exist.
func (prov *RedisProvider) GetBytes(ctx context.Context, key string) ([]byte, error) {
	val, err := retry(func() ([]byte, error) { return prov.Redis.Get(ctx, key).Bytes() })
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (prov *RedisProvider) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	_, err := retry(func() (int64, error) { return -1, prov.Redis.Set(ctx, key, value, expiration).Err() })
	return err
}

func (prov *RedisProvider) SetNX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error) {
	return retry(func() (bool, error) { return prov.Redis.SetNX(ctx, key, value, expiration).Result() })
}

func (prov *RedisProvider) Del(ctx context.Context, key ...string) (int64, error) {
	return retry(func() (int64, error) { return prov.Redis.Del(ctx, key...).Result() })
}

func (prov *RedisProvider) DelIfEqual(ctx context.Context, key string, value []byte) (bool, error) {
	deleted, err := retry(func() (int64, error) {
		return delIfEqual.Run(ctx, prov.Redis, []string{key}, value).Int64()
	})
	return deleted > 0, err
}

func (prov *RedisProvider) SAdd(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return retry(func() (int64, error) { return prov.Redis.SAdd(ctx, key, args...).Result() })
}

func (prov *RedisProvider) SIsMember(ctx context.Context, key string, member string) (bool, error) {
	return retry(func() (bool, error) { return prov.Redis.SIsMember(ctx, key, member).Result() })
}

func (prov *RedisProvider) SMembers(ctx context.Context, key string) ([]string, error) {
	return retry(func() ([]string, error) { return prov.Redis.SMembers(ctx, key).Result() })
}

func (prov *RedisProvider) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	return retryThree(func() ([]string, uint64, error) { return prov.Redis.Scan(ctx, cursor, match, count).Result() })
}
