package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestRecordFilterMatches(t *testing.T) {
	fetched := MStockRecord{
		Symbol:    "AAPL",
		Price:     nd("150.00"),
		ForwardPE: nd("18.50"),
		MA50:      nd("140.00"),
		MA200:     nd("160.00"),
	}
	pending := MStockRecord{Symbol: "MSFT"}

	tests := []struct {
		name   string
		filter MRecordFilter
		record MStockRecord
		want   bool
	}{
		{"empty filter matches fetched", MRecordFilter{}, fetched, true},
		{"empty filter matches pending", MRecordFilter{}, pending, true},
		{"forward_pe below threshold", MRecordFilter{ForwardPEBelow: nd("20")}, fetched, true},
		{"forward_pe equal is excluded", MRecordFilter{ForwardPEBelow: nd("18.50")}, fetched, false},
		{"forward_pe unset is excluded", MRecordFilter{ForwardPEBelow: nd("20")}, pending, false},
		{"price above ma50", MRecordFilter{PriceAboveMA50: true}, fetched, true},
		{"price below ma200", MRecordFilter{PriceAboveMA200: true}, fetched, false},
		{"ma50 with unset fields", MRecordFilter{PriceAboveMA50: true}, pending, false},
		{"predicates are ANDed", MRecordFilter{ForwardPEBelow: nd("20"), PriceAboveMA50: true, PriceAboveMA200: true}, fetched, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.record))
		})
	}
}

func TestRecordFilterIsEmpty(t *testing.T) {
	assert.True(t, MRecordFilter{}.IsEmpty())
	assert.False(t, MRecordFilter{PriceAboveMA200: true}.IsEmpty())
	assert.False(t, MRecordFilter{ForwardPEBelow: nd("1")}.IsEmpty())
}
