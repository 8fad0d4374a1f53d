package voucher

import (
	"time"

	"github.com/google/uuid"

	"github.com/austral-hr/austral-hr/internal/payroll"
	"github.com/austral-hr/austral-hr/internal/shared"
)

// Status enumerates voucher lifecycle values.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPosted   Status = "POSTED"
	StatusReversed Status = "REVERSED"
	StatusDeleted  Status = "DELETED"
)

// Kind distinguishes payroll-centralization vouchers, which refuse reversal
// to keep payroll back-references intact, from manually entered ones.
type Kind string

const (
	KindPayroll Kind = "PAYROLL_CENTRALIZATION"
	KindManual  Kind = "MANUAL"
)

// Entry is one debit or credit line against a ledger account. Description is
// empty for regular aggregation lines and set on synthetic adjustments.
type Entry struct {
	Account     string `json:"account"`
	Description string `json:"description,omitempty"`
	Debit       int64  `json:"debit"`
	Credit      int64  `json:"credit"`
}

// Voucher is one double-entry journal document.
type Voucher struct {
	ID          uuid.UUID
	CompanyID   int64
	Date        time.Time
	Description string
	Kind        Kind
	Status      Status
	Period      shared.Period
	Entries     []Entry
	Total       int64
	PostedAt    *time.Time
	ReversalOf  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DebitTotal sums the debit side.
func (v Voucher) DebitTotal() int64 {
	var sum int64
	for _, e := range v.Entries {
		sum += e.Debit
	}
	return sum
}

// CreditTotal sums the credit side.
func (v Voucher) CreditTotal() int64 {
	var sum int64
	for _, e := range v.Entries {
		sum += e.Credit
	}
	return sum
}

// Balanced reports whether debits equal credits exactly.
func (v Voucher) Balanced() bool {
	return v.DebitTotal() == v.CreditTotal()
}

// AccountMapping is the company-scoped routing of payroll line kinds to
// ledger accounts. An empty field means the kind is unmapped; the aggregator
// skips such lines and surfaces a warning instead of failing the batch.
type AccountMapping struct {
	CompanyID int64

	// Expense accounts (debit side).
	BaseSalary          string
	Overtime            string
	Gratification       string
	Bonus               string
	NonTaxable          string
	FamilyAllowance     string
	UnemploymentExpense string

	// Liability accounts (credit side).
	Pension          string
	Health           string
	Unemployment     string
	Tax              string
	VoluntarySavings string
	Advance          string
	SalariesPayable  string

	// Residual from per-employee integer rounding.
	Rounding string
}

// EarningAccount routes one earning kind to its expense account.
func (m AccountMapping) EarningAccount(kind payroll.EarningKind) (string, bool) {
	var account string
	switch kind {
	case payroll.EarningBaseSalary:
		account = m.BaseSalary
	case payroll.EarningOvertime:
		account = m.Overtime
	case payroll.EarningGratification:
		account = m.Gratification
	case payroll.EarningBonus:
		account = m.Bonus
	case payroll.EarningTransport, payroll.EarningMeal, payroll.EarningNonTaxableBonus:
		account = m.NonTaxable
	case payroll.EarningFamilyAllowance:
		account = m.FamilyAllowance
	}
	return account, account != ""
}

// DiscountAccount routes one discount kind to its liability account.
func (m AccountMapping) DiscountAccount(kind payroll.DiscountKind) (string, bool) {
	var account string
	switch kind {
	case payroll.DiscountPension:
		account = m.Pension
	case payroll.DiscountHealth:
		account = m.Health
	case payroll.DiscountUnemployment:
		account = m.Unemployment
	case payroll.DiscountTax:
		account = m.Tax
	case payroll.DiscountVoluntarySavings:
		account = m.VoluntarySavings
	case payroll.DiscountAdvance:
		account = m.Advance
	}
	return account, account != ""
}
