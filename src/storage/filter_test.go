package storage

import (
	"errors"
	"testing"

	"stock-dashboard/src/logger"
	"stock-dashboard/src/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildWhere(t *testing.T) {
	sqlite := NewSQLiteStore(&models.MConfig{}, logger.NewLogger("test")).dialect
	postgres := NewPostgresStore(&models.MConfig{Name: "test"}, logger.NewLogger("test")).dialect

	filter := models.MRecordFilter{
		ForwardPEBelow:  decimal.NewNullDecimal(decimal.RequireFromString("20.5")),
		PriceAboveMA50:  true,
		PriceAboveMA200: true,
	}

	where, args := buildWhere(filter, sqlite)
	assert.Equal(t, " WHERE (forward_pe IS NOT NULL AND forward_pe < ?)"+
		" AND (price IS NOT NULL AND ma50 IS NOT NULL AND price > ma50)"+
		" AND (price IS NOT NULL AND ma200 IS NOT NULL AND price > ma200)", where)
	assert.Equal(t, []interface{}{20.5}, args)

	where, args = buildWhere(filter, postgres)
	assert.Contains(t, where, "forward_pe < $1")
	assert.Len(t, args, 1)
	assert.True(t, args[0].(decimal.Decimal).Equal(decimal.RequireFromString("20.5")))

	where, args = buildWhere(models.MRecordFilter{PriceAboveMA50: true}, postgres)
	assert.Equal(t, " WHERE (price IS NOT NULL AND ma50 IS NOT NULL AND price > ma50)", where)
	assert.Empty(t, args)

	where, args = buildWhere(models.MRecordFilter{}, sqlite)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "stock_dashboard", SchemaName("stock-dashboard"))
	assert.Equal(t, "my_app_2", SchemaName("My App 2"))
	assert.Equal(t, "stock_dashboard", SchemaName("---"))
	assert.Equal(t, "bad_name", SchemaName(`bad"name`))
}

func TestPostgresTable(t *testing.T) {
	store := NewPostgresStore(&models.MConfig{Name: "Stock Dash"}, logger.NewLogger("test"))
	assert.Equal(t, "stock_dash", store.Schema)
	assert.Equal(t, `"stock_dash"."stocks"`, store.table)
}

func TestIsPostgresUnique(t *testing.T) {
	assert.True(t, isPostgresUnique(&pq.Error{Code: "23505"}))
	assert.False(t, isPostgresUnique(&pq.Error{Code: "23503"}))
	assert.False(t, isPostgresUnique(errors.New("duplicate")))
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_time_format=sqlite", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?mode=ro", sqliteDSN("file:a.db?mode=ro"))
}
