package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPayrollDedupSweep removes duplicate payroll records left behind by
	// retried commits.
	TaskPayrollDedupSweep = "payroll:dedup_sweep"
	// TaskVoucherIntegrityScan verifies that posted vouchers are balanced.
	TaskVoucherIntegrityScan = "voucher:integrity_scan"
)

// DedupSweepPayload selects the period to sweep. A zero year/month means the
// previous calendar month.
type DedupSweepPayload struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`
}

// NewDedupSweepTask constructs an Asynq task for the deduplication sweep.
func NewDedupSweepTask(payload DedupSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPayrollDedupSweep, data), nil
}

// IntegrityScanPayload bounds the scan window in months. Zero means the
// default window of 12 months.
type IntegrityScanPayload struct {
	Months int `json:"months,omitempty"`
}

// NewIntegrityScanTask constructs an Asynq task for the voucher integrity scan.
func NewIntegrityScanTask(payload IntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVoucherIntegrityScan, data), nil
}

func decodePayload(t *asynq.Task, v any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), v); err != nil {
		return asynq.SkipRetry
	}
	return nil
}
