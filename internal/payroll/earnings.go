package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/params"
	"github.com/austral-hr/austral-hr/internal/shared"
)

var (
	// ErrInvalidWorkedDays indicates worked plus absent days exceed the period.
	ErrInvalidWorkedDays = fmt.Errorf("payroll: worked and absent days exceed period: %w", shared.ErrValidation)
	// ErrUnknownInstitution indicates no contribution rate exists for the
	// employee's chosen institution in the period.
	ErrUnknownInstitution = fmt.Errorf("payroll: unknown pension institution: %w", shared.ErrConfiguration)
)

const defaultWeeklyHours = 44

var (
	overtimeFactor50  = decimal.NewFromFloat(1.5)
	overtimeFactor100 = decimal.NewFromInt(2)
	weeksPerMonth     = decimal.NewFromInt(52).Div(decimal.NewFromInt(12))
	gratificationPct  = decimal.NewFromFloat(0.25)
)

// Earnings is the gross side of one computation.
type Earnings struct {
	Lines      []EarningLine
	Taxable    int64
	NonTaxable int64
	Total      int64
}

// ComputeEarnings builds the taxable and non-taxable earnings for one
// employee and period. Pure; no side effects.
func ComputeEarnings(emp Employee, period shared.Period, ov Overrides, p params.StatutoryParameters) (Earnings, error) {
	days := period.Days()

	worked := days - ov.AbsentDays
	if ov.WorkedDays != nil {
		worked = *ov.WorkedDays
	}
	if worked < 0 || ov.AbsentDays < 0 || worked+ov.AbsentDays > days {
		return Earnings{}, fmt.Errorf("%w: worked=%d absent=%d days=%d", ErrInvalidWorkedDays, worked, ov.AbsentDays, days)
	}

	base := emp.BaseSalary
	if ov.AbsentDays > 0 || (ov.WorkedDays != nil && worked < days) {
		base = roundDiv(decimal.NewFromInt(emp.BaseSalary).Mul(decimal.NewFromInt(int64(worked))), decimal.NewFromInt(int64(days)))
	}

	var e Earnings
	e.append(EarningLine{Kind: EarningBaseSalary, Description: "Sueldo base", Amount: base, Taxable: true})

	if overtime := overtimePay(emp, ov); overtime > 0 {
		e.append(EarningLine{Kind: EarningOvertime, Description: "Horas extra", Amount: overtime, Taxable: true})
	}

	if emp.FixedBonus > 0 {
		e.append(EarningLine{Kind: EarningBonus, Description: "Bono fijo", Amount: emp.FixedBonus, Taxable: true})
	}
	for _, b := range ov.Bonuses {
		if b.Amount <= 0 {
			continue
		}
		kind, taxable := EarningBonus, true
		if !b.Taxable {
			kind, taxable = EarningNonTaxableBonus, false
		}
		e.append(EarningLine{Kind: kind, Description: b.Name, Amount: b.Amount, Taxable: taxable})
	}

	if grat := gratification(emp, e.Taxable, p.GratificationCapAnnual); grat > 0 {
		e.append(EarningLine{Kind: EarningGratification, Description: "Gratificación legal", Amount: grat, Taxable: true})
	}

	if emp.TransportAllowance > 0 {
		e.append(EarningLine{Kind: EarningTransport, Description: "Movilización", Amount: emp.TransportAllowance, Taxable: false})
	}
	if emp.MealAllowance > 0 {
		e.append(EarningLine{Kind: EarningMeal, Description: "Colación", Amount: emp.MealAllowance, Taxable: false})
	}

	return e, nil
}

func (e *Earnings) append(line EarningLine) {
	e.Lines = append(e.Lines, line)
	if line.Taxable {
		e.Taxable += line.Amount
	} else {
		e.NonTaxable += line.Amount
	}
	e.Total += line.Amount
}

// overtimePay prices the two premium tiers off the legal hourly rate: the
// monthly salary divided by the monthly hours implied by the weekly schedule.
func overtimePay(emp Employee, ov Overrides) int64 {
	if !ov.OvertimeHours50.IsPositive() && !ov.OvertimeHours100.IsPositive() {
		return 0
	}
	weekly := emp.WeeklyHours
	if weekly <= 0 {
		weekly = defaultWeeklyHours
	}
	monthlyHours := decimal.NewFromInt(int64(weekly)).Mul(weeksPerMonth)
	hourly := decimal.NewFromInt(emp.BaseSalary).Div(monthlyHours)

	pay := hourly.Mul(overtimeFactor50).Mul(ov.OvertimeHours50).
		Add(hourly.Mul(overtimeFactor100).Mul(ov.OvertimeHours100))
	return pay.Round(0).IntPart()
}

// gratification applies the legal 25%-of-taxable rule capped at one twelfth
// of the annual cap, or passes through the contractual amount.
func gratification(emp Employee, taxableSoFar int64, capAnnual int64) int64 {
	switch emp.GratificationMode {
	case GratificationNone:
		return 0
	case GratificationFixed:
		return emp.GratificationFixed
	default:
		grat := gratificationPct.Mul(decimal.NewFromInt(taxableSoFar)).Round(0).IntPart()
		capMonthly := roundDiv(decimal.NewFromInt(capAnnual), decimal.NewFromInt(12))
		if grat > capMonthly {
			return capMonthly
		}
		return grat
	}
}

func roundDiv(num, den decimal.Decimal) int64 {
	return num.Div(den).Round(0).IntPart()
}
