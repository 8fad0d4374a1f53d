package payroll

import (
	"github.com/austral-hr/austral-hr/internal/params"
	"github.com/austral-hr/austral-hr/internal/shared"
)

// BuildDraft composes earnings, caps, statutory discounts, income tax and
// family allowance into one itemised draft. Pure and re-runnable; preview and
// commit share this exact path.
//
// The family allowance is carried as a non-taxable earning line, so the
// invariant totalEarnings - totalDiscounts == netSalary holds exactly.
func BuildDraft(emp Employee, period shared.Period, ov Overrides, p params.StatutoryParameters) (Draft, error) {
	earnings, err := ComputeEarnings(emp, period, ov, p)
	if err != nil {
		return Draft{}, err
	}

	bases := ApplyCaps(earnings.Taxable, p)

	discounts, err := ComputeDiscounts(emp, bases, p)
	if err != nil {
		return Draft{}, err
	}

	tax := ComputeTax(earnings.Taxable-discounts.PreTaxWithheld(), p)
	discounts.Lines = append(discounts.Lines, DiscountLine{Kind: DiscountTax, Description: "Impuesto único", Amount: tax})

	if ov.Advances > 0 {
		discounts.Lines = append(discounts.Lines, DiscountLine{Kind: DiscountAdvance, Description: "Anticipos", Amount: ov.Advances})
	}

	if allowance := FamilyAllowance(earnings.Taxable, emp.Dependents, emp.FamilyAllowance, p.FamilyAllowanceBrackets); allowance > 0 {
		earnings.append(EarningLine{Kind: EarningFamilyAllowance, Description: "Asignación familiar", Amount: allowance, Taxable: false})
	}

	totalDiscounts := discounts.PreTaxWithheld() + tax + discounts.VoluntarySavings + ov.Advances

	return Draft{
		CompanyID:            emp.CompanyID,
		EmployeeID:           emp.ID,
		EmployeeName:         emp.Name,
		Period:               period,
		Earnings:             earnings.Lines,
		Discounts:            discounts.Lines,
		TaxableEarnings:      earnings.Taxable,
		NonTaxableEarnings:   earnings.NonTaxable,
		TotalEarnings:        earnings.Total,
		TotalDiscounts:       totalDiscounts,
		NetSalary:            earnings.Total - totalDiscounts,
		EmployerUnemployment: discounts.EmployerUnemployment,
	}, nil
}
