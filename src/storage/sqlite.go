package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	sqlStore
	Config *models.MConfig
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) *SQLiteStore {
	return &SQLiteStore{
		Config: cfg,
		sqlStore: sqlStore{
			Logger: log,
			table:  "stocks",
			dialect: dialect{
				bind: func(int) string { return "?" },
				numeric: func(d decimal.Decimal) interface{} {
					return d.InexactFloat64()
				},
				isDuplicate: isSQLiteUnique,
			},
		},
	}
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize(ctx context.Context) error {
	dsn := sqliteDSN(d.Config.Storage.DBPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables(ctx)
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) createTables(ctx context.Context) error {
	// NUMERIC affinity keeps the metric columns comparable as numbers.
	query := `
		CREATE TABLE IF NOT EXISTS stocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL UNIQUE,
			price NUMERIC(10,2),
			forward_pe NUMERIC(10,2),
			forward_eps NUMERIC(10,2),
			ma50 NUMERIC(10,2),
			ma200 NUMERIC(10,2),
			dividend_yield NUMERIC(10,2),
			fetch_status TEXT NOT NULL DEFAULT 'pending',
			fetch_error TEXT NOT NULL DEFAULT '',
			fetched_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		);
	`
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create stocks: %w", err)
	}

	d.Logger.Info("SQLiteStore initialized (%s)", d.Config.Storage.DBPath)
	return nil
}

// -----------------------------------------------------------------------------

// sqliteDSN adds a busy timeout and the sqlite time format unless the path
// already carries its own parameters.
func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// -----------------------------------------------------------------------------

func isSQLiteUnique(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
