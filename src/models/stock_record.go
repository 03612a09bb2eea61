package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fetch status values stored alongside each record.
const (
	FetchStatusPending = "pending"
	FetchStatusOK      = "ok"
	FetchStatusFailed  = "failed"
)

// MStockRecord is a tracked symbol and its cached valuation metrics.
// Metric fields stay invalid until the background fetch succeeds.
type MStockRecord struct {
	ID            int64               `json:"id"`
	Symbol        string              `json:"symbol"`
	Price         decimal.NullDecimal `json:"price"`
	ForwardPE     decimal.NullDecimal `json:"forward_pe"`
	ForwardEPS    decimal.NullDecimal `json:"forward_eps"`
	MA50          decimal.NullDecimal `json:"ma50"`
	MA200         decimal.NullDecimal `json:"ma200"`
	DividendYield decimal.NullDecimal `json:"dividend_yield"`
	FetchStatus   string              `json:"fetch_status"`
	FetchError    string              `json:"fetch_error,omitempty"`
	FetchedAt     *time.Time          `json:"fetched_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// -----------------------------------------------------------------------------

// MStockMetrics is the group of values written by one successful fetch.
type MStockMetrics struct {
	Price         decimal.Decimal     `json:"price"`
	ForwardPE     decimal.Decimal     `json:"forward_pe"`
	ForwardEPS    decimal.Decimal     `json:"forward_eps"`
	MA50          decimal.Decimal     `json:"ma50"`
	MA200         decimal.Decimal     `json:"ma200"`
	DividendYield decimal.NullDecimal `json:"dividend_yield"`
}

// -----------------------------------------------------------------------------

// ApplyMetrics copies a metric group onto the record and marks it fetched.
func (r *MStockRecord) ApplyMetrics(m MStockMetrics, fetchedAt time.Time) {
	r.Price = decimal.NewNullDecimal(m.Price)
	r.ForwardPE = decimal.NewNullDecimal(m.ForwardPE)
	r.ForwardEPS = decimal.NewNullDecimal(m.ForwardEPS)
	r.MA50 = decimal.NewNullDecimal(m.MA50)
	r.MA200 = decimal.NewNullDecimal(m.MA200)
	r.DividendYield = m.DividendYield
	r.FetchStatus = FetchStatusOK
	r.FetchError = ""
	r.FetchedAt = &fetchedAt
}

// HasMetrics reports whether the core metric group is populated.
func (r *MStockRecord) HasMetrics() bool {
	return r.Price.Valid && r.ForwardPE.Valid && r.ForwardEPS.Valid && r.MA50.Valid && r.MA200.Valid
}

// -----------------------------------------------------------------------------

// MStockListing is a record as shown in listings, with its exchange state.
type MStockListing struct {
	MStockRecord
	Exchange   string `json:"exchange"`
	MarketOpen bool   `json:"market_open"`
}
