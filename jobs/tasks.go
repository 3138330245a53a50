// Package jobs defines background task types and the Asynq worker runtime.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSearchReindex invalidates the search cache after catalog writes.
	TaskSearchReindex = "search:reindex"
	// TaskLowStockScan sweeps inventory for subjects under their alert
	// threshold.
	TaskLowStockScan = "inventory:low_stock_scan"
)

// SearchReindexPayload contains options for the reindex job.
type SearchReindexPayload struct {
	Force bool `json:"force"`
}

// NewSearchReindexTask builds a reindex task.
func NewSearchReindexTask(force bool) (*asynq.Task, error) {
	body, err := json.Marshal(SearchReindexPayload{Force: force})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSearchReindex, body, asynq.Queue(QueueDefault)), nil
}

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockScanTask builds a low stock scan task.
func NewLowStockScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockScanPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault)), nil
}
