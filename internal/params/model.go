package params

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/austral-hr/austral-hr/internal/shared"
)

var (
	// ErrParametersNotFound indicates no parameter set exists for the period.
	ErrParametersNotFound = fmt.Errorf("params: parameters not found: %w", shared.ErrNotFound)
	// ErrInvalidBracketTable indicates a malformed tax bracket table.
	ErrInvalidBracketTable = fmt.Errorf("params: invalid bracket table: %w", shared.ErrConfiguration)
	// ErrInvalidRateTable indicates missing or malformed contribution rates.
	ErrInvalidRateTable = fmt.Errorf("params: invalid rate table: %w", shared.ErrConfiguration)
)

// TaxBracket is one range of the progressive income tax table, expressed in UTM.
// A zero ToUTM marks the open-ended top bracket.
type TaxBracket struct {
	FromUTM      decimal.Decimal `json:"fromUtm"`
	ToUTM        decimal.Decimal `json:"toUtm"`
	Rate         decimal.Decimal `json:"rate"`
	DeductionUTM decimal.Decimal `json:"deductionUtm"`
}

// Open reports whether the bracket has no upper bound.
func (b TaxBracket) Open() bool {
	return b.ToUTM.IsZero()
}

// FamilyAllowanceBracket maps a taxable income range in pesos to a flat
// per-dependent allowance. A zero To marks the open-ended top bracket, which
// by law carries a zero allowance.
type FamilyAllowanceBracket struct {
	From         int64 `json:"from"`
	To           int64 `json:"to"`
	PerDependent int64 `json:"perDependent"`
}

// InstitutionRate carries the total contribution rate (mandatory 10% plus
// commission) of one pension institution.
type InstitutionRate struct {
	Code string          `json:"code"`
	Rate decimal.Decimal `json:"rate"`
}

// UnemploymentRates holds the seguro de cesantía split per contract type.
type UnemploymentRates struct {
	IndefiniteEmployee decimal.Decimal `json:"indefiniteEmployee"`
	IndefiniteEmployer decimal.Decimal `json:"indefiniteEmployer"`
	FixedTermEmployer  decimal.Decimal `json:"fixedTermEmployer"`
}

// StatutoryParameters is the effective parameter set for one (period, company).
// A company-scoped row fully replaces the global default; fields are never
// merged across scopes. The struct is treated as immutable once resolved.
type StatutoryParameters struct {
	Period    shared.Period `json:"period"`
	CompanyID *int64        `json:"companyId,omitempty"`

	UF  decimal.Decimal `json:"uf"`
	UTM decimal.Decimal `json:"utm"`

	MinimumWage            int64 `json:"minimumWage"`
	GratificationCapAnnual int64 `json:"gratificationCapAnnual"`

	PensionCapUF      decimal.Decimal `json:"pensionCapUf"`
	UnemploymentCapUF decimal.Decimal `json:"unemploymentCapUf"`

	TaxBrackets             []TaxBracket             `json:"taxBrackets"`
	FamilyAllowanceBrackets []FamilyAllowanceBracket `json:"familyAllowanceBrackets"`
	PensionRates            []InstitutionRate        `json:"pensionRates"`
	Unemployment            UnemploymentRates        `json:"unemployment"`
}

// PensionRate resolves the contribution rate for a pension institution code.
func (p StatutoryParameters) PensionRate(code string) (decimal.Decimal, bool) {
	for _, r := range p.PensionRates {
		if r.Code == code {
			return r.Rate, true
		}
	}
	return decimal.Decimal{}, false
}

// Validate checks the parameter set once at load time. Computations assume a
// validated set and never re-check bracket shape.
func (p StatutoryParameters) Validate() error {
	if !p.UF.IsPositive() || !p.UTM.IsPositive() {
		return fmt.Errorf("%w: non-positive unit values for %s", ErrInvalidRateTable, p.Period)
	}
	if p.MinimumWage <= 0 {
		return fmt.Errorf("%w: non-positive minimum wage", ErrInvalidRateTable)
	}
	if !p.PensionCapUF.IsPositive() || !p.UnemploymentCapUF.IsPositive() {
		return fmt.Errorf("%w: non-positive contribution caps", ErrInvalidRateTable)
	}
	if len(p.PensionRates) == 0 {
		return fmt.Errorf("%w: no pension institution rates", ErrInvalidRateTable)
	}
	if err := validateTaxBrackets(p.TaxBrackets); err != nil {
		return err
	}
	return validateAllowanceBrackets(p.FamilyAllowanceBrackets)
}

// validateTaxBrackets enforces the invariant that brackets are ascending,
// contiguous and cover [0, inf).
func validateTaxBrackets(brackets []TaxBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: empty table", ErrInvalidBracketTable)
	}
	if !brackets[0].FromUTM.IsZero() {
		return fmt.Errorf("%w: first bracket must start at zero", ErrInvalidBracketTable)
	}
	for i, b := range brackets {
		last := i == len(brackets)-1
		if last {
			if !b.Open() {
				return fmt.Errorf("%w: last bracket must be open-ended", ErrInvalidBracketTable)
			}
			continue
		}
		if b.Open() {
			return fmt.Errorf("%w: bracket %d open before end of table", ErrInvalidBracketTable, i)
		}
		if !b.ToUTM.GreaterThan(b.FromUTM) {
			return fmt.Errorf("%w: bracket %d empty or descending", ErrInvalidBracketTable, i)
		}
		if !brackets[i+1].FromUTM.Equal(b.ToUTM) {
			return fmt.Errorf("%w: gap after bracket %d", ErrInvalidBracketTable, i)
		}
	}
	return nil
}

func validateAllowanceBrackets(brackets []FamilyAllowanceBracket) error {
	if len(brackets) == 0 {
		return fmt.Errorf("%w: empty family allowance table", ErrInvalidBracketTable)
	}
	last := brackets[len(brackets)-1]
	if last.To != 0 || last.PerDependent != 0 {
		return fmt.Errorf("%w: family allowance table must end with an open zero bracket", ErrInvalidBracketTable)
	}
	for i := 0; i < len(brackets)-1; i++ {
		if brackets[i].To <= brackets[i].From {
			return fmt.Errorf("%w: family allowance bracket %d empty or descending", ErrInvalidBracketTable, i)
		}
		if brackets[i+1].From != brackets[i].To {
			return fmt.Errorf("%w: gap after family allowance bracket %d", ErrInvalidBracketTable, i)
		}
	}
	return nil
}
