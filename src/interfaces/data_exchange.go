package interfaces

import (
	"context"

	"stock-dashboard/src/models"
)

// -----------------------------------------------------------------------------
// IDataExchanger pushes fetch results to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {

	// Broadcast hands a finished fetch result to connected listeners.
	Broadcast(result models.MFetchResult)

	// Start the server; blocks until it stops.
	Start() error

	// Stop the server gracefully
	Stop(ctx context.Context) error
}
