package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskOnebeatExport builds and uploads the four OneBeat reports for a company.
	TaskOnebeatExport = "onebeat:export"
	// TaskOnebeatReplenish consumes the latest replenishment recommendation file.
	TaskOnebeatReplenish = "onebeat:replenish"
)

// ExportPayload selects the company and, optionally, the window of an export.
// A zero window exports the last day.
type ExportPayload struct {
	CompanyID int64     `json:"company_id"`
	Start     time.Time `json:"start,omitempty"`
	Stop      time.Time `json:"stop,omitempty"`
}

// ReplenishPayload selects the company whose recommendations are imported.
type ReplenishPayload struct {
	CompanyID int64 `json:"company_id"`
}

// NewExportTask constructs an export task.
func NewExportTask(payload ExportPayload) (*asynq.Task, error) {
	if payload.CompanyID <= 0 {
		return nil, fmt.Errorf("jobs: export task requires company id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOnebeatExport, body, asynq.Queue(QueueDefault)), nil
}

// NewReplenishTask constructs a replenish task.
func NewReplenishTask(payload ReplenishPayload) (*asynq.Task, error) {
	if payload.CompanyID <= 0 {
		return nil, fmt.Errorf("jobs: replenish task requires company id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOnebeatReplenish, body, asynq.Queue(QueueDefault)), nil
}
