package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/params"
)

var healthRate = decimal.NewFromFloat(0.07)

// Discounts is the statutory withholding side of one computation, before
// income tax and advances.
type Discounts struct {
	Lines []DiscountLine

	Pension              int64
	Health               int64
	UnemploymentEmployee int64
	VoluntarySavings     int64

	// EmployerUnemployment is a cost of the employer, not a withholding.
	EmployerUnemployment int64
}

// PreTaxWithheld is the sum deducted before computing income tax.
func (d Discounts) PreTaxWithheld() int64 {
	return d.Pension + d.Health + d.UnemploymentEmployee
}

// ComputeDiscounts derives the mandatory contributions against their capped
// bases. Statutory lines are retained even when zero so the persisted record
// itemises every family.
func ComputeDiscounts(emp Employee, bases ContributionBases, p params.StatutoryParameters) (Discounts, error) {
	var d Discounts

	// Legacy INP affiliates keep their contribution outside the AFP system.
	if emp.PensionRegime != RegimeINP {
		rate, ok := p.PensionRate(emp.PensionInstitution)
		if !ok {
			return Discounts{}, fmt.Errorf("%w: %q in %s", ErrUnknownInstitution, emp.PensionInstitution, p.Period)
		}
		d.Pension = rate.Mul(decimal.NewFromInt(bases.Pension)).Round(0).IntPart()
	}
	d.Lines = append(d.Lines, DiscountLine{Kind: DiscountPension, Description: pensionDescription(emp), Amount: d.Pension})

	d.Health = healthContribution(emp, bases.Pension, p)
	d.Lines = append(d.Lines, DiscountLine{Kind: DiscountHealth, Description: healthDescription(emp), Amount: d.Health})

	d.UnemploymentEmployee, d.EmployerUnemployment = unemploymentContribution(emp, bases.Unemployment, p.Unemployment)
	d.Lines = append(d.Lines, DiscountLine{Kind: DiscountUnemployment, Description: "Seguro de cesantía", Amount: d.UnemploymentEmployee})

	if emp.VoluntarySavings > 0 {
		d.VoluntarySavings = emp.VoluntarySavings
		d.Lines = append(d.Lines, DiscountLine{Kind: DiscountVoluntarySavings, Description: "APV", Amount: d.VoluntarySavings})
	}

	return d, nil
}

// healthContribution is the flat 7% for the public scheme, or the greater of
// 7% and the private plan amount converted from UF.
func healthContribution(emp Employee, cappedBase int64, p params.StatutoryParameters) int64 {
	legal := healthRate.Mul(decimal.NewFromInt(cappedBase)).Round(0).IntPart()
	if emp.HealthScheme != HealthIsapre {
		return legal
	}
	plan := emp.HealthPlanUF.Mul(p.UF).Round(0).IntPart()
	if plan > legal {
		return plan
	}
	return legal
}

// unemploymentContribution splits the premium per contract type. Pensioners
// and legacy-regime employees are excluded entirely.
func unemploymentContribution(emp Employee, cappedBase int64, rates params.UnemploymentRates) (employee, employer int64) {
	if emp.Pensioner || emp.PensionRegime == RegimeINP {
		return 0, 0
	}
	base := decimal.NewFromInt(cappedBase)
	switch emp.ContractType {
	case ContractFixedTerm:
		return 0, rates.FixedTermEmployer.Mul(base).Round(0).IntPart()
	default:
		return rates.IndefiniteEmployee.Mul(base).Round(0).IntPart(),
			rates.IndefiniteEmployer.Mul(base).Round(0).IntPart()
	}
}

func pensionDescription(emp Employee) string {
	if emp.PensionRegime == RegimeINP {
		return "AFP (régimen antiguo, exento)"
	}
	return "AFP " + emp.PensionInstitution
}

func healthDescription(emp Employee) string {
	if emp.HealthScheme == HealthIsapre {
		return "Salud " + emp.HealthInstitution
	}
	return "Fonasa 7%"
}
