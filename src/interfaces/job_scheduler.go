package interfaces

import "stock-dashboard/src/models"

// -----------------------------------------------------------------------------
// IJobScheduler schedules background fetch jobs for freshly created records.
// -----------------------------------------------------------------------------

type IJobScheduler interface {

	// Submit enqueues one fetch job for record without blocking and returns
	// its job id.
	Submit(record models.MStockRecord) (string, error)

	// Stats returns a snapshot of the scheduler counters.
	Stats() models.MJobStats
}
