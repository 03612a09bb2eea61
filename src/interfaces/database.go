package interfaces

import (
	"context"
	"time"

	"stock-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IStockStore defines the contract for stock record storage.
// Every call commits its change before returning.
// -----------------------------------------------------------------------------

type IStockStore interface {

	// -----------------------------------------------------------------------------

	// Initialize opens the connection and creates the schema if absent.
	Initialize(ctx context.Context) error

	// -----------------------------------------------------------------------------

	// Create inserts a new record with unset metrics and a pending fetch status.
	// Returns helpers.ErrDuplicateKey when the symbol already exists.
	Create(ctx context.Context, symbol string) (*models.MStockRecord, error)

	// -----------------------------------------------------------------------------

	// Get returns the record with the given id or helpers.ErrNotFound.
	Get(ctx context.Context, id int64) (*models.MStockRecord, error)

	// GetBySymbol returns the record with the given symbol or helpers.ErrNotFound.
	GetBySymbol(ctx context.Context, symbol string) (*models.MStockRecord, error)

	// -----------------------------------------------------------------------------

	// List returns the records matching filter, ordered by symbol.
	List(ctx context.Context, filter models.MRecordFilter) ([]models.MStockRecord, error)

	// -----------------------------------------------------------------------------

	// Delete removes the record with the given symbol or returns helpers.ErrNotFound.
	Delete(ctx context.Context, symbol string) error

	// DeleteAll removes every record and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	// -----------------------------------------------------------------------------

	// ApplyQuote writes the whole metric group and marks the fetch as ok.
	ApplyQuote(ctx context.Context, id int64, metrics models.MStockMetrics, fetchedAt time.Time) error

	// MarkFetchFailed records a failed fetch without touching the metrics.
	MarkFetchFailed(ctx context.Context, id int64, reason string, fetchedAt time.Time) error

	// -----------------------------------------------------------------------------

	// Ping checks the connection.
	Ping(ctx context.Context) error

	// Close the database connection
	Close() error
}
