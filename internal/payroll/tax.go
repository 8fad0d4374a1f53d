package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/params"
)

// ComputeTax resolves the single income tax (IUT) for the taxable amount net
// of pension, health and unemployment withholdings. The bracket table is in
// UTM and has been validated at parameter-load time; the marginal formula is
// amount*rate - deduction, clamped at zero.
func ComputeTax(taxableNet int64, p params.StatutoryParameters) int64 {
	if taxableNet <= 0 {
		return 0
	}
	amountUTM := decimal.NewFromInt(taxableNet).Div(p.UTM)
	b := locateBracket(amountUTM, p.TaxBrackets)

	taxUTM := amountUTM.Mul(b.Rate).Sub(b.DeductionUTM)
	if !taxUTM.IsPositive() {
		return 0
	}
	return taxUTM.Mul(p.UTM).Round(0).IntPart()
}

// locateBracket finds the bracket with from <= amount < to; the last bracket
// is open-ended. The table covers [0, inf) so the fallback is the top bracket.
func locateBracket(amountUTM decimal.Decimal, brackets []params.TaxBracket) params.TaxBracket {
	for _, b := range brackets {
		if b.Open() || amountUTM.LessThan(b.ToUTM) {
			return b
		}
	}
	return brackets[len(brackets)-1]
}
