package integration_tests

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/events/provider"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/leaderboard"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/ledger"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/pipeline"
	st "github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/sketch"
	"github.com/AustralianCyberSecurityCentre/azul-leaderboard.git/storage"
	"github.com/stretchr/testify/require"
)

// GetProvider connects to the kafka configured by LB__KAFKA__ENDPOINT.
func GetProvider(ctx context.Context, t *testing.T) *provider.SaramaKafkaProvider {
	prov, err := provider.NewSaramaProvider(ctx, st.Kafka.Endpoint, 100*time.Millisecond)
	require.Nil(t, err)
	return prov
}

// CreateTopic makes sure a single partition topic exists.
func CreateTopic(ctx context.Context, t *testing.T, topicName string) {
	err := GetProvider(ctx, t).EnsureTopic(topicName, 1)
	require.Nil(t, err, "failed to create topic %v", topicName)
}

// NewLocalSystem builds a leaderboard over a temporary local store and file ledgers.
func NewLocalSystem(t *testing.T) *leaderboard.System {
	dir := t.TempDir()
	store, err := storage.NewEmptyLocalStore(filepath.Join(dir, "store"))
	require.Nil(t, err)
	sl, err := ledger.NewFileLedger(filepath.Join(dir, "ledgers", ledger.PipelineStream, ledger.FileLedgerName))
	require.Nil(t, err)
	bl, err := ledger.NewFileLedger(filepath.Join(dir, "ledgers", ledger.PipelineBatch, ledger.FileLedgerName))
	require.Nil(t, err)
	return leaderboard.NewSystem(store, sl, bl, pipeline.NewLocalRunLock(), sketch.Dimensions{Width: 1000, Depth: 5})
}
