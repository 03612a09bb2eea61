package models

import "github.com/shopspring/decimal"

// MRecordFilter is a conjunction of optional predicates over the listing.
//
// PriceAboveMA50 and PriceAboveMA200 are toggled by the mere presence of the
// ma50/ma200 query parameters; their values are not thresholds.
type MRecordFilter struct {
	ForwardPEBelow  decimal.NullDecimal `json:"forward_pe,omitempty"`
	PriceAboveMA50  bool                `json:"ma50,omitempty"`
	PriceAboveMA200 bool                `json:"ma200,omitempty"`
}

// -----------------------------------------------------------------------------

// IsEmpty reports whether no predicate is active.
func (f MRecordFilter) IsEmpty() bool {
	return !f.ForwardPEBelow.Valid && !f.PriceAboveMA50 && !f.PriceAboveMA200
}

// -----------------------------------------------------------------------------

// Matches evaluates the filter against a record. A predicate that references
// an unset field is false.
func (f MRecordFilter) Matches(r MStockRecord) bool {
	if f.ForwardPEBelow.Valid {
		if !r.ForwardPE.Valid || !r.ForwardPE.Decimal.LessThan(f.ForwardPEBelow.Decimal) {
			return false
		}
	}
	if f.PriceAboveMA50 && !above(r.Price, r.MA50) {
		return false
	}
	if f.PriceAboveMA200 && !above(r.Price, r.MA200) {
		return false
	}
	return true
}

func above(a, b decimal.NullDecimal) bool {
	return a.Valid && b.Valid && a.Decimal.GreaterThan(b.Decimal)
}
