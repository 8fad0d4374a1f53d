package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/params"
)

// ContributionBases holds the capped taxable bases per discount family.
// Pension and health share one cap; unemployment insurance has its own.
type ContributionBases struct {
	Pension      int64
	Unemployment int64
}

// ApplyCaps clamps taxable earnings to the statutory caps, each expressed in
// UF and converted at the period's UF value. Idempotent and monotonic.
func ApplyCaps(taxable int64, p params.StatutoryParameters) ContributionBases {
	return ContributionBases{
		Pension:      applyCap(taxable, p.PensionCapUF, p.UF),
		Unemployment: applyCap(taxable, p.UnemploymentCapUF, p.UF),
	}
}

func applyCap(taxable int64, capUF, uf decimal.Decimal) int64 {
	if taxable <= 0 {
		return 0
	}
	capNominal := capUF.Mul(uf).Round(0).IntPart()
	if taxable > capNominal {
		return capNominal
	}
	return taxable
}
