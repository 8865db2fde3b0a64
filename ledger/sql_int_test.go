//go:build integration

package ledger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresLedger(t *testing.T) {
	dsn := os.Getenv("LB_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LB_TEST_POSTGRES_DSN not set")
	}
	for _, driver := range []string{"pgx", "postgres"} {
		l, err := OpenSQLLedger(driver, dsn, "test-"+driver)
		require.Nil(t, err)
		_, err = l.db.ExecContext(ctx, `DELETE FROM processed_events WHERE pipeline = $1`, "test-"+driver)
		require.Nil(t, err)
		LedgerImplementationBaseTests(t, l)
		require.Nil(t, l.Close())
	}
}
