package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLLedger stores ids in a processed_events table shared by both pipelines.
type SQLLedger struct {
	db       *sql.DB
	driver   string
	pipeline string
}

// OpenSQLLedger opens a database/sql ledger. driver is one of sqlite, pgx or postgres.
func OpenSQLLedger(driver, dsn, pipeline string) (*SQLLedger, error) {
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(dsn); dir != "." {
			err := os.MkdirAll(dir, 0755)
			if err != nil {
				return nil, err
			}
		}
	case "pgx", "postgres":
	default:
		return nil, fmt.Errorf("unsupported ledger sql driver '%s'", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}
	if driver == "sqlite" {
		// sqlite allows one writer
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	l := &SQLLedger{db: db, driver: driver, pipeline: pipeline}
	err = l.migrate(context.Background())
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLLedger) migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS processed_events (
		pipeline TEXT NOT NULL,
		event_id TEXT NOT NULL,
		PRIMARY KEY (pipeline, event_id)
	)`)
	if err != nil {
		return fmt.Errorf("creating processed_events table: %w", err)
	}
	return nil
}

// insertSQL ignores ids already recorded for the pipeline.
func (l *SQLLedger) insertSQL() string {
	if l.driver == "sqlite" {
		return `INSERT OR IGNORE INTO processed_events (pipeline, event_id) VALUES (?, ?)`
	}
	return `INSERT INTO processed_events (pipeline, event_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
}

func (l *SQLLedger) placeholder(n int) string {
	if l.driver == "sqlite" {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// Append inserts all ids in one transaction.
func (l *SQLLedger) Append(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, l.insertSQL())
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, id := range ids {
		_, err = stmt.ExecContext(ctx, l.pipeline, id)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("recording event %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (l *SQLLedger) Contains(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM processed_events WHERE pipeline = %s AND event_id = %s`,
		l.placeholder(1), l.placeholder(2))
	var n int
	err := l.db.QueryRowContext(ctx, query, l.pipeline, id).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *SQLLedger) AllIDs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT event_id FROM processed_events WHERE pipeline = %s`, l.placeholder(1))
	rows, err := l.db.QueryContext(ctx, query, l.pipeline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// database collation may not be byte order
	sort.Strings(ids)
	return ids, nil
}

func (l *SQLLedger) Close() error {
	return l.db.Close()
}
