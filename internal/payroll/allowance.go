package payroll

import "github.com/austral-hr/austral-hr/internal/params"

// FamilyAllowance maps pre-discount taxable income to its bracket and pays a
// flat amount per dependent. Ineligible employees or zero dependents get zero
// regardless of bracket.
func FamilyAllowance(taxable int64, dependents int, eligible bool, brackets []params.FamilyAllowanceBracket) int64 {
	if !eligible || dependents <= 0 {
		return 0
	}
	for _, b := range brackets {
		if taxable >= b.From && (b.To == 0 || taxable < b.To) {
			return b.PerDependent * int64(dependents)
		}
	}
	return 0
}
