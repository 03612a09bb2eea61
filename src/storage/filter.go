package storage

import (
	"fmt"
	"strings"

	"stock-dashboard/src/models"
)

// buildWhere renders the filter as a WHERE clause. Every predicate guards its
// columns with IS NOT NULL so unset metrics never match.
func buildWhere(f models.MRecordFilter, d dialect) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.ForwardPEBelow.Valid {
		args = append(args, d.numeric(f.ForwardPEBelow.Decimal))
		clauses = append(clauses, fmt.Sprintf("(forward_pe IS NOT NULL AND forward_pe < %s)", d.bind(len(args))))
	}
	if f.PriceAboveMA50 {
		clauses = append(clauses, "(price IS NOT NULL AND ma50 IS NOT NULL AND price > ma50)")
	}
	if f.PriceAboveMA200 {
		clauses = append(clauses, "(price IS NOT NULL AND ma200 IS NOT NULL AND price > ma200)")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
