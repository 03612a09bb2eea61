package interfaces

import (
	"context"

	"stock-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IQuoteProvider fetches valuation metrics for one symbol from a market-data
// provider. Failures are helpers.ProviderUnavailableError or
// helpers.ProviderDataMissingError.
// -----------------------------------------------------------------------------

type IQuoteProvider interface {

	// Name returns the unique identifier of the provider
	Name() string

	// FetchQuote retrieves the current quote for symbol.
	FetchQuote(ctx context.Context, symbol string) (*models.MQuote, error)
}
