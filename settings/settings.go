/*
Package settings controls reading configuration from environment and assigning defaults
*/
package settings

import (
	"log" // cannot use zerolog as log options not initialised
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// prefix for all environment variables read into settings
const envPrefix = "LB"

var Settings *LBSettings
var Sketch *LBSketch
var Storage *LBStorage
var Kafka *LBKafka

type LBSketch struct {
	// columns per row, must match any persisted state
	Width int `koanf:"width" yaml:"width"`
	// independent hash rows, must match any persisted state
	Depth int `koanf:"depth" yaml:"depth"`
}

type LBStorageLocal struct {
	Path string `koanf:"path" yaml:"path"`
}

type LBStorageS3 struct {
	// S3 server address
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
	// Access key to auth against S3 bucket, empty to use IAM
	AccessKey string `koanf:"access_key" yaml:"access_key"`
	// Secret key to auth against S3 bucket
	SecretKey string `koanf:"secret_key" yaml:"secret_key"`
	// Whether to utilise HTTPS for S3 transport
	Secure bool `koanf:"secure" yaml:"secure"`
	// S3 region or empty if unsupported by server
	Region string `koanf:"region" yaml:"region"`
	// S3 bucket name to store to (will attempt to create if not exists)
	Bucket string `koanf:"bucket" yaml:"bucket"`
}

type LBStorageAzure struct {
	Endpoint       string `koanf:"endpoint" yaml:"endpoint"`
	StorageAccount string `koanf:"storage_account" yaml:"storage_account"`
	Container      string `koanf:"container" yaml:"container"`
	AccessKey      string `koanf:"access_key" yaml:"access_key"`
}

type LBStorageCache struct {
	// In memory cache size for raw events and batches, zero disables
	SizeBytes HumanReadableBytes `koanf:"size_bytes" yaml:"size_bytes"`
	// Number of cache shards, concurrency vs max object size
	Shards int `koanf:"shards" yaml:"shards"`
	// Max TimeToLive for cached data, in seconds.
	TTLSeconds int `koanf:"ttl_seconds" yaml:"ttl_seconds"`
}

type LBStorage struct {
	// valid backends: s3, azure, local
	Backend string         `koanf:"backend" yaml:"backend"`
	Local   LBStorageLocal `koanf:"local" yaml:"local"`
	S3      LBStorageS3    `koanf:"s3" yaml:"s3"`
	Azure   LBStorageAzure `koanf:"azure" yaml:"azure"`
	Cache   LBStorageCache `koanf:"cache" yaml:"cache"`
}

type LBLedgerSQL struct {
	// database/sql driver name, sqlite or pgx
	Driver string `koanf:"driver" yaml:"driver"`
	DSN    string `koanf:"dsn" yaml:"dsn"`
}

type LBLedger struct {
	// valid backends: file, redis, sql
	Backend string `koanf:"backend" yaml:"backend"`
	// folder holding the ledger files for the file backend
	Path string      `koanf:"path" yaml:"path"`
	SQL  LBLedgerSQL `koanf:"sql" yaml:"sql"`
}

type LBRedis struct {
	Endpoint                 string `koanf:"endpoint" yaml:"endpoint"`
	Username                 string `koanf:"username" yaml:"username"`
	Password                 string `koanf:"password" yaml:"password"`
	MaxRetries               int    `koanf:"max_retries" yaml:"max_retries"`
	ConnectionTimeoutSeconds int    `koanf:"connection_timeout_seconds" yaml:"connection_timeout_seconds"`
}

type LBKafka struct {
	// Kafka bootstrap server list, comma separated
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
	// topic raw events are published to
	Topic string `koanf:"topic" yaml:"topic"`
	// consumer group used by ingest
	ConsumerGroup string `koanf:"consumer_group" yaml:"consumer_group"`
	// earliest or latest
	Offset string `koanf:"offset" yaml:"offset"`
	// Max size of single message
	MessageMaxBytes HumanReadableBytes `koanf:"message_max_bytes" yaml:"message_max_bytes"`
	// Number of messages to be backed up in Sarama library
	ChannelSize int `koanf:"channel_size" yaml:"channel_size"`
	// poll wait for the in memory provider
	PollWait string `koanf:"poll_wait" yaml:"poll_wait"`
}

type LBIngest struct {
	// bytes to allocate for the dedupe cache, zero disables
	DedupeCacheBytes HumanReadableBytes `koanf:"dedupe_cache_bytes" yaml:"dedupe_cache_bytes"`
}

type LBQuery struct {
	DefaultK int `koanf:"default_k" yaml:"default_k"`
	// exact result cache, zero size disables
	CacheSizeBytes  HumanReadableBytes `koanf:"cache_size_bytes" yaml:"cache_size_bytes"`
	CacheTTLSeconds int                `koanf:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
}

type LBSchedule struct {
	// interval between stream updates when running continuously
	StreamInterval string `koanf:"stream_interval" yaml:"stream_interval"`
	// interval between batch jobs when running continuously
	BatchInterval string `koanf:"batch_interval" yaml:"batch_interval"`
	// how long a pipeline run may hold its lock
	LockTTLSeconds int `koanf:"lock_ttl_seconds" yaml:"lock_ttl_seconds"`
}

type LBSettings struct {
	// restapi server will listen for connections from this address
	ListenAddr string `koanf:"listen_addr" yaml:"listen_addr"`
	// for custom log files, the folder to place these file in
	LogPath   string `koanf:"log_path" yaml:"log_path"`
	LogLevel  string `koanf:"log_level" yaml:"log_level"`
	LogPretty bool   `koanf:"log_pretty" yaml:"log_pretty"`

	Sketch   LBSketch   `koanf:"sketch" yaml:"sketch"`
	Storage  LBStorage  `koanf:"storage" yaml:"storage"`
	Ledger   LBLedger   `koanf:"ledger" yaml:"ledger"`
	Redis    LBRedis    `koanf:"redis" yaml:"redis"`
	Kafka    LBKafka    `koanf:"kafka" yaml:"kafka"`
	Ingest   LBIngest   `koanf:"ingest" yaml:"ingest"`
	Query    LBQuery    `koanf:"query" yaml:"query"`
	Schedule LBSchedule `koanf:"schedule" yaml:"schedule"`

	EnableExtendedKafkaMetrics bool `koanf:"enable_extended_kafka_metrics" yaml:"enable_extended_kafka_metrics"`
}

var defaults LBSettings = LBSettings{
	ListenAddr: ":8112",
	LogPath:    "/tmp/logs/leaderboard/",
	LogLevel:   "info",
	Sketch: LBSketch{
		Width: 1000,
		Depth: 5,
	},
	Storage: LBStorage{
		Backend: "local",
		Local: LBStorageLocal{
			Path: "/tmp/leaderboard/store",
		},
		S3: LBStorageS3{
			Bucket: "leaderboard",
		},
		Azure: LBStorageAzure{
			Container: "leaderboard",
		},
		Cache: LBStorageCache{
			SizeBytes:  0,
			Shards:     32,
			TTLSeconds: 900,
		},
	},
	Ledger: LBLedger{
		Backend: "file",
		Path:    "/tmp/leaderboard/ledgers",
		SQL: LBLedgerSQL{
			Driver: "sqlite",
			DSN:    "/tmp/leaderboard/ledgers.db?_pragma=busy_timeout(5000)",
		},
	},
	Redis: LBRedis{
		MaxRetries:               3,
		ConnectionTimeoutSeconds: 5,
	},
	Kafka: LBKafka{
		Topic:           "leaderboard.events",
		ConsumerGroup:   "leaderboard-ingest",
		Offset:          "earliest",
		MessageMaxBytes: HumanToBytesFatal("1Mi"),
		ChannelSize:     256,
		PollWait:        "100ms",
	},
	Ingest: LBIngest{
		DedupeCacheBytes: HumanToBytesFatal("8Mi"),
	},
	Query: LBQuery{
		DefaultK:        5,
		CacheSizeBytes:  0,
		CacheTTLSeconds: 60,
	},
	Schedule: LBSchedule{
		StreamInterval: "10s",
		BatchInterval:  "5m",
		LockTTLSeconds: 300,
	},
}

// envKey maps LB__SKETCH__WIDTH or LB.SKETCH.WIDTH onto sketch.width
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	s = strings.ReplaceAll(s, "__", ".")
	return strings.Trim(s, ".")
}

// parseSettings layers defaults, an optional yaml file and then environment into a settings struct.
func parseSettings(base LBSettings) (*LBSettings, error) {
	merged, err := mergeConfigFile(base, os.Getenv(envPrefix+"_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	k := koanf.New(".")
	err = k.Load(structs.Provider(merged, "koanf"), nil)
	if err != nil {
		return nil, err
	}
	err = k.Load(env.Provider(envPrefix, ".", envKey), nil)
	if err != nil {
		return nil, err
	}
	ret := LBSettings{}
	err = k.UnmarshalWithConf("", &ret, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				HumanReadableBytesHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &ret,
		},
	})
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func setupLoggers(settings *LBSettings) {
	createFileLoggers(settings.LogPath)
	setupLogger(settings.LogLevel, settings.LogPretty)
}

func ResetSettings() {
	parsed, err := parseSettings(defaults)
	if err != nil {
		log.Fatalf("failed to read settings: %v", err)
	}
	Settings = parsed
	setupLoggers(Settings)
	Sketch = &Settings.Sketch
	Storage = &Settings.Storage
	Kafka = &Settings.Kafka
}

func init() {
	ResetSettings()
}
