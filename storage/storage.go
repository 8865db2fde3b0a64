package storage

import (
	"fmt"

	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
)

// NewFromSettings creates the configured storage backend, wrapped in a cache if one is sized.
func NewFromSettings(cfg *st.LBStorage) (FileStorage, error) {
	var store FileStorage
	var err error
	switch cfg.Backend {
	case "s3":
		if cfg.S3.AccessKey == "" {
			store, err = NewS3StoreIAM(cfg.S3.Endpoint, cfg.S3.Secure, cfg.S3.Bucket, cfg.S3.Region)
		} else {
			store, err = NewS3Store(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Secure, cfg.S3.Bucket, cfg.S3.Region)
		}
	case "azure":
		store, err = NewAzureStore(cfg.Azure.Endpoint, cfg.Azure.Container, cfg.Azure.StorageAccount, cfg.Azure.AccessKey)
	case "local":
		store, err = NewLocalStore(cfg.Local.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend '%s'", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", cfg.Backend, err)
	}
	st.Logger.Info().Str("backend", cfg.Backend).Msg("storage initialised")

	if cfg.Cache.SizeBytes > 0 {
		sizeMB := int(cfg.Cache.SizeBytes / (1024 * 1024))
		if sizeMB < 1 {
			sizeMB = 1
		}
		store, err = NewDataCache(sizeMB, cfg.Cache.TTLSeconds, cfg.Cache.Shards, store)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage cache: %w", err)
		}
	}
	return store, nil
}
