package voucher

import (
	"github.com/google/uuid"

	"github.com/austral-hr/austral-hr/internal/payroll"
)

// CommitRequest computes and persists one payroll batch plus its draft voucher.
type CommitRequest struct {
	CompanyID   int64                 `json:"companyId" validate:"required,gt=0"`
	Year        int                   `json:"year" validate:"required,gte=2000,lte=2100"`
	Month       int                   `json:"month" validate:"required,gte=1,lte=12"`
	Drafts      []payroll.DraftInput  `json:"drafts" validate:"required,min=1,dive"`
	Description string                `json:"description,omitempty"`
}

// CommitResult reports a committed batch. Warnings list payroll lines skipped
// because their kind has no mapped account.
type CommitResult struct {
	ProcessedCount int           `json:"processedCount"`
	VoucherID      uuid.UUID     `json:"voucherId"`
	Warnings       []SkippedLine `json:"warnings,omitempty"`
}

// CentralizeRequest aggregates already-persisted payrolls into a voucher at
// the requested status.
type CentralizeRequest struct {
	CompanyID   int64       `json:"companyId" validate:"required,gt=0"`
	PayrollIDs  []uuid.UUID `json:"payrollIds" validate:"required,min=1"`
	Status      Status      `json:"status" validate:"required,oneof=DRAFT POSTED"`
	Description string      `json:"description,omitempty"`
}

// CentralizeResult reports the created voucher.
type CentralizeResult struct {
	VoucherID uuid.UUID     `json:"voucherId"`
	Warnings  []SkippedLine `json:"warnings,omitempty"`
}

// UndoRequest deletes the period's draft payroll voucher and its payroll set.
type UndoRequest struct {
	CompanyID int64 `json:"companyId" validate:"required,gt=0"`
	Year      int   `json:"year" validate:"required,gte=2000,lte=2100"`
	Month     int   `json:"month" validate:"required,gte=1,lte=12"`
}

// UndoResult reports an undone centralization.
type UndoResult struct {
	VoucherID       uuid.UUID `json:"voucherId"`
	DeletedPayrolls int64     `json:"deletedPayrolls"`
}

// ReverseRequest produces the mirror-image voucher of a posted one.
type ReverseRequest struct {
	CompanyID   int64     `json:"companyId" validate:"required,gt=0"`
	VoucherID   uuid.UUID `json:"voucherId" validate:"required"`
	Description string    `json:"description,omitempty"`
}
