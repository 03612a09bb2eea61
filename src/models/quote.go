package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// numericLimit is the exclusive bound of a NUMERIC(10,2) column.
var numericLimit = decimal.New(1, 8)

var hundred = decimal.NewFromInt(100)

// MQuote holds the raw provider values for one symbol.
// DividendYield is a fraction (0.0055 == 0.55%) and nil when not reported.
type MQuote struct {
	Symbol               string   `json:"symbol"`
	PreviousClose        float64  `json:"previous_close"`
	FiftyDayAverage      float64  `json:"fifty_day_average"`
	TwoHundredDayAverage float64  `json:"two_hundred_day_average"`
	ForwardPE            float64  `json:"forward_pe"`
	ForwardEPS           float64  `json:"forward_eps"`
	DividendYield        *float64 `json:"dividend_yield,omitempty"`
}

// -----------------------------------------------------------------------------

// Metrics converts the quote into stored values, rounded to two places.
// The dividend yield is converted from a fraction to a percentage.
func (q *MQuote) Metrics() (MStockMetrics, error) {
	var m MStockMetrics
	var err error

	if m.Price, err = toNumeric("previousClose", q.PreviousClose); err != nil {
		return MStockMetrics{}, err
	}
	if m.MA50, err = toNumeric("fiftyDayAverage", q.FiftyDayAverage); err != nil {
		return MStockMetrics{}, err
	}
	if m.MA200, err = toNumeric("twoHundredDayAverage", q.TwoHundredDayAverage); err != nil {
		return MStockMetrics{}, err
	}
	if m.ForwardPE, err = toNumeric("forwardPE", q.ForwardPE); err != nil {
		return MStockMetrics{}, err
	}
	if m.ForwardEPS, err = toNumeric("forwardEps", q.ForwardEPS); err != nil {
		return MStockMetrics{}, err
	}

	if q.DividendYield != nil {
		pct := decimal.NewFromFloat(*q.DividendYield).Mul(hundred).Round(2)
		if pct.Abs().GreaterThanOrEqual(numericLimit) {
			return MStockMetrics{}, fmt.Errorf("dividendYield out of range: %s", pct)
		}
		m.DividendYield = decimal.NewNullDecimal(pct)
	}

	return m, nil
}

// -----------------------------------------------------------------------------

func toNumeric(field string, v float64) (decimal.Decimal, error) {
	d := decimal.NewFromFloat(v).Round(2)
	if d.Abs().GreaterThanOrEqual(numericLimit) {
		return decimal.Decimal{}, fmt.Errorf("%s out of range: %s", field, d)
	}
	return d, nil
}
