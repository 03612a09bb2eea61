package models

import "time"

// MFetchResult is the outcome of one background fetch job.
type MFetchResult struct {
	JobID    string        `json:"job_id"`
	RecordID int64         `json:"record_id"`
	Symbol   string        `json:"symbol"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Record   *MStockRecord `json:"record,omitempty"`
}

// MJobStats is a snapshot of the job runner counters.
type MJobStats struct {
	Workers   int   `json:"workers"`
	QueueSize int   `json:"queue_size"`
	Queued    int   `json:"queued"`
	Running   int64 `json:"running"`
	Submitted int64 `json:"submitted"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Rejected  int64 `json:"rejected"`
}
