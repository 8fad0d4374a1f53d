package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/shared"
)

// ContractType distinguishes the unemployment-insurance regime.
type ContractType string

const (
	ContractIndefinite ContractType = "INDEFINITE"
	ContractFixedTerm  ContractType = "FIXED_TERM"
)

// PensionRegime separates AFP members from legacy INP affiliates, who are
// excluded from AFP contributions and unemployment insurance.
type PensionRegime string

const (
	RegimeAFP PensionRegime = "AFP"
	RegimeINP PensionRegime = "INP"
)

// HealthScheme selects between the public 7% scheme and a private plan.
type HealthScheme string

const (
	HealthFonasa HealthScheme = "FONASA"
	HealthIsapre HealthScheme = "ISAPRE"
)

// GratificationMode controls how legal gratification is computed.
type GratificationMode string

const (
	GratificationAutomatic GratificationMode = "AUTOMATIC"
	GratificationNone      GratificationMode = "NONE"
	GratificationFixed     GratificationMode = "FIXED"
)

// Employee is the contract snapshot read from the employee directory.
// It is external master data, read-only to this module.
type Employee struct {
	ID                 int64
	CompanyID          int64
	Name               string
	ContractType       ContractType
	BaseSalary         int64
	WeeklyHours        int
	GratificationMode  GratificationMode
	GratificationFixed int64
	PensionRegime      PensionRegime
	PensionInstitution string
	Pensioner          bool
	HealthScheme       HealthScheme
	HealthInstitution  string
	HealthPlanUF       decimal.Decimal
	Dependents         int
	FamilyAllowance    bool
	TransportAllowance int64
	MealAllowance      int64
	FixedBonus         int64
	VoluntarySavings   int64
}

// EarningKind tags one earning line.
type EarningKind string

const (
	EarningBaseSalary      EarningKind = "BASE_SALARY"
	EarningOvertime        EarningKind = "OVERTIME"
	EarningGratification   EarningKind = "GRATIFICATION"
	EarningBonus           EarningKind = "BONUS"
	EarningTransport       EarningKind = "TRANSPORT_ALLOWANCE"
	EarningMeal            EarningKind = "MEAL_ALLOWANCE"
	EarningNonTaxableBonus EarningKind = "NON_TAXABLE_BONUS"
	EarningFamilyAllowance EarningKind = "FAMILY_ALLOWANCE"
)

// DiscountKind tags one discount line. The set is closed so the voucher
// aggregator can handle every kind exhaustively.
type DiscountKind string

const (
	DiscountPension          DiscountKind = "PENSION"
	DiscountHealth           DiscountKind = "HEALTH"
	DiscountUnemployment     DiscountKind = "UNEMPLOYMENT"
	DiscountTax              DiscountKind = "TAX"
	DiscountVoluntarySavings DiscountKind = "VOLUNTARY_SAVINGS"
	DiscountAdvance          DiscountKind = "ADVANCE"
)

// EarningLine is one itemised earning in pesos.
type EarningLine struct {
	Kind        EarningKind `json:"kind"`
	Description string      `json:"description"`
	Amount      int64       `json:"amount"`
	Taxable     bool        `json:"taxable"`
}

// DiscountLine is one itemised discount in pesos. Statutory lines are kept
// even when zero; the aggregator skips zero amounts.
type DiscountLine struct {
	Kind        DiscountKind `json:"kind"`
	Description string       `json:"description"`
	Amount      int64        `json:"amount"`
}

// Overrides carries the worked-time and variable inputs for one computation.
type Overrides struct {
	WorkedDays       *int            `json:"workedDays,omitempty"`
	AbsentDays       int             `json:"absentDays,omitempty"`
	OvertimeHours50  decimal.Decimal `json:"overtimeHours50,omitempty"`
	OvertimeHours100 decimal.Decimal `json:"overtimeHours100,omitempty"`
	Bonuses          []BonusInput    `json:"bonuses,omitempty"`
	Advances         int64           `json:"advances,omitempty"`
}

// BonusInput is one variable bonus for the period.
type BonusInput struct {
	Name    string `json:"name"`
	Amount  int64  `json:"amount" validate:"gt=0"`
	Taxable bool   `json:"taxable"`
}

// Draft is the transient, fully itemised payroll result for one employee.
// It is never persisted directly; Commit snapshots it into a Payroll.
type Draft struct {
	CompanyID    int64         `json:"companyId"`
	EmployeeID   int64         `json:"employeeId"`
	EmployeeName string        `json:"employeeName"`
	Period       shared.Period `json:"period"`

	Earnings  []EarningLine  `json:"earnings"`
	Discounts []DiscountLine `json:"discounts"`

	TaxableEarnings    int64 `json:"taxableEarnings"`
	NonTaxableEarnings int64 `json:"nonTaxableEarnings"`
	TotalEarnings      int64 `json:"totalEarnings"`
	TotalDiscounts     int64 `json:"totalDiscounts"`
	NetSalary          int64 `json:"netSalary"`

	// Employer-side unemployment insurance: a cost, not a withholding.
	EmployerUnemployment int64 `json:"employerUnemployment"`
}

// Payroll is the persisted snapshot of a Draft for one (employee, period).
type Payroll struct {
	ID           uuid.UUID
	CompanyID    int64
	EmployeeID   int64
	EmployeeName string
	Period       shared.Period

	Earnings  []EarningLine
	Discounts []DiscountLine

	TaxableEarnings      int64
	NonTaxableEarnings   int64
	TotalEarnings        int64
	TotalDiscounts       int64
	NetSalary            int64
	EmployerUnemployment int64

	IsCentralized bool
	VoucherID     *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FromDraft snapshots a draft into a persistable record.
func FromDraft(d Draft, id uuid.UUID, now time.Time) Payroll {
	return Payroll{
		ID:                   id,
		CompanyID:            d.CompanyID,
		EmployeeID:           d.EmployeeID,
		EmployeeName:         d.EmployeeName,
		Period:               d.Period,
		Earnings:             d.Earnings,
		Discounts:            d.Discounts,
		TaxableEarnings:      d.TaxableEarnings,
		NonTaxableEarnings:   d.NonTaxableEarnings,
		TotalEarnings:        d.TotalEarnings,
		TotalDiscounts:       d.TotalDiscounts,
		NetSalary:            d.NetSalary,
		EmployerUnemployment: d.EmployerUnemployment,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
