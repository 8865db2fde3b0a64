package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadAllConfig(t *testing.T) {
	// backup env
	envs := os.Environ()
	os.Clearenv()

	ResetSettings()
	require.Equal(t, 1000, Settings.Sketch.Width)
	require.Equal(t, 5, Settings.Sketch.Depth)
	require.Equal(t, "local", Settings.Storage.Backend)
	require.Equal(t, HumanReadableBytes(0x800000), Settings.Ingest.DedupeCacheBytes)

	os.Setenv("LB__SKETCH__WIDTH", "2000")
	os.Setenv("LB__STORAGE__CACHE__SIZE_BYTES", "10Ki")
	ResetSettings()
	require.Equal(t, 2000, Settings.Sketch.Width)
	require.Equal(t, 5, Settings.Sketch.Depth)
	require.Equal(t, HumanReadableBytes(0x2800), Settings.Storage.Cache.SizeBytes)
	require.Equal(t, 2000, Sketch.Width)

	os.Unsetenv("LB__STORAGE__CACHE__SIZE_BYTES")
	os.Setenv("LB.STORAGE.CACHE.SIZE_BYTES", "30Ki")
	os.Setenv("LB.STORAGE.S3.SECURE", "true")
	os.Setenv("LB.STORAGE.S3.ACCESS_KEY", "myaccess")
	os.Setenv("LB.LEDGER.BACKEND", "sql")
	ResetSettings()
	require.Equal(t, HumanReadableBytes(0x7800), Settings.Storage.Cache.SizeBytes)
	require.Equal(t, true, Settings.Storage.S3.Secure)
	require.Equal(t, "myaccess", Settings.Storage.S3.AccessKey)
	require.Equal(t, "sql", Settings.Ledger.Backend)
	require.Equal(t, "sqlite", Settings.Ledger.SQL.Driver)

	// restore variables
	os.Clearenv()
	for _, e := range envs {
		pair := strings.SplitN(e, "=", 2)
		os.Setenv(pair[0], pair[1])
	}
	ResetSettings()
}

func TestConfigFile(t *testing.T) {
	envs := os.Environ()
	os.Clearenv()

	conf := filepath.Join(t.TempDir(), "leaderboard.yaml")
	err := os.WriteFile(conf, []byte(`
sketch:
  width: 4096
storage:
  backend: s3
  s3:
    endpoint: minio:9000
kafka:
  message_max_bytes: 2Mi
`), 0600)
	require.Nil(t, err)
	os.Setenv("LB_CONFIG_FILE", conf)
	os.Setenv("LB__SKETCH__DEPTH", "7")
	ResetSettings()
	require.Equal(t, 4096, Settings.Sketch.Width)
	require.Equal(t, 7, Settings.Sketch.Depth)
	require.Equal(t, "s3", Settings.Storage.Backend)
	require.Equal(t, "minio:9000", Settings.Storage.S3.Endpoint)
	// untouched values keep their defaults
	require.Equal(t, "leaderboard", Settings.Storage.S3.Bucket)
	require.Equal(t, HumanReadableBytes(2*1024*1024), Settings.Kafka.MessageMaxBytes)

	os.Clearenv()
	for _, e := range envs {
		pair := strings.SplitN(e, "=", 2)
		os.Setenv(pair[0], pair[1])
	}
	ResetSettings()
}

func TestMergeConfigYamlInvalid(t *testing.T) {
	_, err := mergeConfigYaml(defaults, []byte("sketch: [not, a, map"))
	require.NotNil(t, err)
}

func TestEnvKey(t *testing.T) {
	require.Equal(t, "sketch.width", envKey("LB__SKETCH__WIDTH"))
	require.Equal(t, "storage.s3.access_key", envKey("LB.STORAGE.S3.ACCESS_KEY"))
}
