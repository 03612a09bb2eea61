package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

var schemaSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	sqlStore
	Config *models.MConfig
	Schema string
}

// -----------------------------------------------------------------------------

// NewPostgresStore keeps its table in a schema named after the application.
func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) *PostgresStore {
	schema := SchemaName(cfg.Name)

	return &PostgresStore{
		Config: cfg,
		Schema: schema,
		sqlStore: sqlStore{
			Logger: log,
			table:  fmt.Sprintf(`"%s"."stocks"`, schema),
			dialect: dialect{
				bind: func(n int) string { return fmt.Sprintf("$%d", n) },
				numeric: func(d decimal.Decimal) interface{} {
					return d
				},
				isDuplicate: isPostgresUnique,
			},
		},
	}
}

// -----------------------------------------------------------------------------

// SchemaName turns an application name into a safe identifier.
func SchemaName(name string) string {
	s := schemaSanitizer.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "stock_dashboard"
	}
	return s
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize(ctx context.Context) error {
	db, err := sql.Open("postgres", d.Config.Storage.DBConnectionString)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return err
	}

	d.DB = db

	if _, err := d.DB.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(ctx); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL UNIQUE,
			price NUMERIC(10,2),
			forward_pe NUMERIC(10,2),
			forward_eps NUMERIC(10,2),
			ma50 NUMERIC(10,2),
			ma200 NUMERIC(10,2),
			dividend_yield NUMERIC(10,2),
			fetch_status TEXT NOT NULL DEFAULT 'pending',
			fetch_error TEXT NOT NULL DEFAULT '',
			fetched_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`, d.table)
	if _, err := d.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s: %w", d.table, err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func isPostgresUnique(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}
