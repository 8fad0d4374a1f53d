package params

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/austral-hr/austral-hr/internal/shared"
)

func validParameters(t *testing.T) StatutoryParameters {
	t.Helper()
	period, err := shared.NewPeriod(2026, 1)
	require.NoError(t, err)
	return StatutoryParameters{
		Period:                 period,
		UF:                     decimal.NewFromInt(37000),
		UTM:                    decimal.NewFromInt(65000),
		MinimumWage:            460000,
		GratificationCapAnnual: 3600000,
		PensionCapUF:           decimal.NewFromFloat(87.8),
		UnemploymentCapUF:      decimal.NewFromFloat(131.9),
		TaxBrackets: []TaxBracket{
			{FromUTM: decimal.Zero, ToUTM: decimal.NewFromFloat(13.5), Rate: decimal.Zero, DeductionUTM: decimal.Zero},
			{FromUTM: decimal.NewFromFloat(13.5), ToUTM: decimal.NewFromInt(30), Rate: decimal.NewFromFloat(0.04), DeductionUTM: decimal.NewFromFloat(0.54)},
			{FromUTM: decimal.NewFromInt(30), Rate: decimal.NewFromFloat(0.08), DeductionUTM: decimal.NewFromFloat(1.74)},
		},
		FamilyAllowanceBrackets: []FamilyAllowanceBracket{
			{From: 0, To: 600000, PerDependent: 22007},
			{From: 600000, To: 900000, PerDependent: 13505},
			{From: 900000},
		},
		PensionRates: []InstitutionRate{{Code: "HABITAT", Rate: decimal.NewFromFloat(0.1127)}},
		Unemployment: UnemploymentRates{
			IndefiniteEmployee: decimal.NewFromFloat(0.006),
			IndefiniteEmployer: decimal.NewFromFloat(0.024),
			FixedTermEmployer:  decimal.NewFromFloat(0.03),
		},
	}
}

func TestValidateAcceptsWellFormedSet(t *testing.T) {
	require.NoError(t, validParameters(t).Validate())
}

func TestValidateRejectsNonPositiveUnits(t *testing.T) {
	p := validParameters(t)
	p.UF = decimal.Zero
	require.ErrorIs(t, p.Validate(), ErrInvalidRateTable)

	p = validParameters(t)
	p.UTM = decimal.NewFromInt(-1)
	require.ErrorIs(t, p.Validate(), ErrInvalidRateTable)
}

func TestValidateRejectsMissingPensionRates(t *testing.T) {
	p := validParameters(t)
	p.PensionRates = nil
	require.ErrorIs(t, p.Validate(), ErrInvalidRateTable)
}

func TestValidateTaxBracketShape(t *testing.T) {
	cases := map[string]func(*StatutoryParameters){
		"empty table": func(p *StatutoryParameters) {
			p.TaxBrackets = nil
		},
		"first bracket not at zero": func(p *StatutoryParameters) {
			p.TaxBrackets[0].FromUTM = decimal.NewFromInt(1)
		},
		"last bracket closed": func(p *StatutoryParameters) {
			p.TaxBrackets[len(p.TaxBrackets)-1].ToUTM = decimal.NewFromInt(100)
		},
		"gap between brackets": func(p *StatutoryParameters) {
			p.TaxBrackets[1].FromUTM = decimal.NewFromInt(14)
		},
		"descending bracket": func(p *StatutoryParameters) {
			p.TaxBrackets[1].ToUTM = decimal.NewFromInt(10)
		},
		"open bracket mid-table": func(p *StatutoryParameters) {
			p.TaxBrackets[1].ToUTM = decimal.Zero
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := validParameters(t)
			mutate(&p)
			require.ErrorIs(t, p.Validate(), ErrInvalidBracketTable)
		})
	}
}

func TestValidateFamilyAllowanceBrackets(t *testing.T) {
	p := validParameters(t)
	p.FamilyAllowanceBrackets[len(p.FamilyAllowanceBrackets)-1].PerDependent = 1000
	require.ErrorIs(t, p.Validate(), ErrInvalidBracketTable)

	p = validParameters(t)
	p.FamilyAllowanceBrackets[1].From = 700000
	require.ErrorIs(t, p.Validate(), ErrInvalidBracketTable)
}

func TestPensionRateLookup(t *testing.T) {
	p := validParameters(t)

	rate, ok := p.PensionRate("HABITAT")
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.NewFromFloat(0.1127)))

	_, ok = p.PensionRate("CUPRUM")
	require.False(t, ok)
}
