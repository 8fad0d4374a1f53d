package payroll

import "github.com/google/uuid"

// PreviewRequest computes one draft without persisting anything.
type PreviewRequest struct {
	CompanyID  int64      `json:"companyId" validate:"required,gt=0"`
	EmployeeID int64      `json:"employeeId" validate:"required,gt=0"`
	Year       int        `json:"year" validate:"required,gte=2000,lte=2100"`
	Month      int        `json:"month" validate:"required,gte=1,lte=12"`
	Overrides  *Overrides `json:"overrides,omitempty"`
}

// DraftInput selects one employee and their worked-time inputs inside a batch.
type DraftInput struct {
	EmployeeID int64      `json:"employeeId" validate:"required,gt=0"`
	Overrides  *Overrides `json:"overrides,omitempty"`
}

// DeduplicateRequest triggers the repair pass for one (company, period).
type DeduplicateRequest struct {
	CompanyID int64 `json:"companyId" validate:"required,gt=0"`
	Year      int   `json:"year" validate:"required,gte=2000,lte=2100"`
	Month     int   `json:"month" validate:"required,gte=1,lte=12"`
}

// DedupEntry reports the outcome for one employee with duplicate records.
type DedupEntry struct {
	EmployeeID int64       `json:"employeeId"`
	KeptID     uuid.UUID   `json:"keptId"`
	DeletedIDs []uuid.UUID `json:"deletedIds"`
}

// DedupReport summarises one deduplication run.
type DedupReport struct {
	DeletedCount int          `json:"deletedCount"`
	Entries      []DedupEntry `json:"report"`
}
