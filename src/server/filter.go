package server

import (
	"regexp"
	"strings"

	"stock-dashboard/src/helpers"
	"stock-dashboard/src/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DeleteAllSymbol in a DELETE body removes every record.
const DeleteAllSymbol = "DELETEALL"

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-^=]{1,20}$`)

// -----------------------------------------------------------------------------

// NormalizeSymbol trims and upper-cases a symbol and checks its characters.
func NormalizeSymbol(raw string) (string, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw))
	if symbol == "" {
		return "", helpers.NewValidationError("symbol is required")
	}
	if !symbolPattern.MatchString(symbol) {
		return "", helpers.NewValidationError("invalid symbol %q", raw)
	}
	if symbol == DeleteAllSymbol {
		return "", helpers.NewValidationError("symbol %q is reserved", DeleteAllSymbol)
	}
	return symbol, nil
}

// -----------------------------------------------------------------------------

// ParseFilter builds a filter from raw parameter values. Empty values are
// treated as absent, and a non-empty ma50/ma200 switches the comparison on
// whatever its value.
func ParseFilter(forwardPE string, ma50, ma200 bool) (models.MRecordFilter, error) {
	filter := models.MRecordFilter{
		PriceAboveMA50:  ma50,
		PriceAboveMA200: ma200,
	}

	if v := strings.TrimSpace(forwardPE); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return filter, helpers.NewValidationError("invalid forward_pe %q: must be a number", forwardPE)
		}
		filter.ForwardPEBelow = decimal.NewNullDecimal(d)
	}

	return filter, nil
}

// -----------------------------------------------------------------------------

// ParseRecordFilter reads forward_pe, ma50 and ma200 from the query string.
func ParseRecordFilter(c *gin.Context) (models.MRecordFilter, error) {
	return ParseFilter(
		c.Query("forward_pe"),
		c.Query("ma50") != "",
		c.Query("ma200") != "",
	)
}
