package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteMetrics(t *testing.T) {
	dy := 0.0055
	q := MQuote{
		Symbol:               "AAPL",
		PreviousClose:        189.987,
		FiftyDayAverage:      180.1234,
		TwoHundredDayAverage: 175.5,
		ForwardPE:            28.456,
		ForwardEPS:           6.7,
		DividendYield:        &dy,
	}

	m, err := q.Metrics()
	require.NoError(t, err)

	assert.Equal(t, "189.99", m.Price.StringFixed(2))
	assert.Equal(t, "180.12", m.MA50.StringFixed(2))
	assert.Equal(t, "175.50", m.MA200.StringFixed(2))
	assert.Equal(t, "28.46", m.ForwardPE.StringFixed(2))
	assert.Equal(t, "6.70", m.ForwardEPS.StringFixed(2))
	require.True(t, m.DividendYield.Valid)
	assert.Equal(t, "0.55", m.DividendYield.Decimal.StringFixed(2))
}

func TestQuoteMetricsWithoutDividend(t *testing.T) {
	q := MQuote{Symbol: "AMZN", PreviousClose: 130, FiftyDayAverage: 128, TwoHundredDayAverage: 120, ForwardPE: 40, ForwardEPS: 3.2}

	m, err := q.Metrics()
	require.NoError(t, err)
	assert.False(t, m.DividendYield.Valid)

	var r MStockRecord
	r.ApplyMetrics(m, time.Now())
	assert.True(t, r.HasMetrics())
	assert.False(t, r.DividendYield.Valid)
	assert.Equal(t, FetchStatusOK, r.FetchStatus)
	assert.NotNil(t, r.FetchedAt)
}

func TestQuoteMetricsOutOfRange(t *testing.T) {
	q := MQuote{Symbol: "BRK-A", PreviousClose: 123456789, FiftyDayAverage: 1, TwoHundredDayAverage: 1, ForwardPE: 1, ForwardEPS: 1}

	_, err := q.Metrics()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "previousClose")
}
