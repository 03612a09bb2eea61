package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/shopspring/decimal"
)

const recordColumns = `id, symbol, price, forward_pe, forward_eps, ma50, ma200, dividend_yield,
	fetch_status, fetch_error, fetched_at, created_at`

// dialect captures the differences between the SQL backends.
type dialect struct {
	bind        func(n int) string
	numeric     func(d decimal.Decimal) interface{}
	isDuplicate func(err error) bool
}

// -----------------------------------------------------------------------------

// sqlStore implements the record operations shared by SQLite and Postgres.
type sqlStore struct {
	DB      *sql.DB
	Logger  *logger.Logger
	table   string
	dialect dialect
}

// -----------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.MStockRecord, error) {
	var r models.MStockRecord
	var fetchedAt, createdAt timeValue

	err := row.Scan(&r.ID, &r.Symbol, &r.Price, &r.ForwardPE, &r.ForwardEPS, &r.MA50, &r.MA200, &r.DividendYield,
		&r.FetchStatus, &r.FetchError, &fetchedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	if fetchedAt.Valid {
		t := fetchedAt.Time
		r.FetchedAt = &t
	}
	r.CreatedAt = createdAt.Time
	return &r, nil
}

// -----------------------------------------------------------------------------

// timeValue scans timestamps that drivers hand back either as time.Time or
// as text.
type timeValue struct {
	Time  time.Time
	Valid bool
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *timeValue) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Create(ctx context.Context, symbol string) (*models.MStockRecord, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (symbol, fetch_status, fetch_error, created_at)
		VALUES (%s, %s, '', %s)
		RETURNING %s
	`, s.table, s.dialect.bind(1), s.dialect.bind(2), s.dialect.bind(3), recordColumns)

	row := s.DB.QueryRowContext(ctx, query, symbol, models.FetchStatusPending, time.Now().UTC())
	rec, err := scanRecord(row)
	if err != nil {
		if s.dialect.isDuplicate(err) {
			return nil, fmt.Errorf("symbol %s: %w", symbol, helpers.ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to insert %s: %w", symbol, err)
	}
	return rec, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Get(ctx context.Context, id int64) (*models.MStockRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = %s`, recordColumns, s.table, s.dialect.bind(1))
	return s.getOne(ctx, query, id)
}

func (s *sqlStore) GetBySymbol(ctx context.Context, symbol string) (*models.MStockRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE symbol = %s`, recordColumns, s.table, s.dialect.bind(1))
	return s.getOne(ctx, query, symbol)
}

func (s *sqlStore) getOne(ctx context.Context, query string, arg interface{}) (*models.MStockRecord, error) {
	rec, err := scanRecord(s.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%v: %w", arg, helpers.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) List(ctx context.Context, filter models.MRecordFilter) ([]models.MStockRecord, error) {
	where, args := buildWhere(filter, s.dialect)
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY symbol`, recordColumns, s.table, where)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	records := make([]models.MStockRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Delete(ctx context.Context, symbol string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE symbol = %s`, s.table, s.dialect.bind(1))
	return s.execOne(ctx, symbol, query, symbol)
}

// -----------------------------------------------------------------------------

func (s *sqlStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table))
	if err != nil {
		return 0, fmt.Errorf("failed to delete all records: %w", err)
	}
	return res.RowsAffected()
}

// -----------------------------------------------------------------------------

func (s *sqlStore) ApplyQuote(ctx context.Context, id int64, m models.MStockMetrics, fetchedAt time.Time) error {
	b := s.dialect.bind
	query := fmt.Sprintf(`
		UPDATE %s SET
			price = %s, forward_pe = %s, forward_eps = %s, ma50 = %s, ma200 = %s, dividend_yield = %s,
			fetch_status = %s, fetch_error = '', fetched_at = %s
		WHERE id = %s
	`, s.table, b(1), b(2), b(3), b(4), b(5), b(6), b(7), b(8), b(9))

	return s.execOne(ctx, id, query,
		m.Price, m.ForwardPE, m.ForwardEPS, m.MA50, m.MA200, m.DividendYield,
		models.FetchStatusOK, fetchedAt.UTC(), id)
}

// -----------------------------------------------------------------------------

func (s *sqlStore) MarkFetchFailed(ctx context.Context, id int64, reason string, fetchedAt time.Time) error {
	b := s.dialect.bind
	query := fmt.Sprintf(`
		UPDATE %s SET fetch_status = %s, fetch_error = %s, fetched_at = %s
		WHERE id = %s
	`, s.table, b(1), b(2), b(3), b(4))

	return s.execOne(ctx, id, query, models.FetchStatusFailed, reason, fetchedAt.UTC(), id)
}

// -----------------------------------------------------------------------------

// execOne runs a statement that must touch exactly one row.
func (s *sqlStore) execOne(ctx context.Context, key interface{}, query string, args ...interface{}) error {
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%v: %w", key, helpers.ErrNotFound)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Ping(ctx context.Context) error {
	if s.DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.DB.PingContext(ctx)
}

// -----------------------------------------------------------------------------

func (s *sqlStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}
