package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDraftStandardMonth(t *testing.T) {
	draft, err := BuildDraft(testEmployee(), testPeriod(t), Overrides{}, testParams(t))
	require.NoError(t, err)

	require.Equal(t, int64(1250000), draft.TaxableEarnings)
	require.Equal(t, int64(1250000), draft.TotalEarnings)

	// Pension 140,875 + health 87,500 + unemployment 7,500 = 235,875 pre-tax;
	// tax on 1,014,125 is 5,465.
	require.Equal(t, int64(5465), findDiscount(t, draft.Discounts, DiscountTax).Amount)
	require.Equal(t, int64(241340), draft.TotalDiscounts)
	require.Equal(t, int64(1008660), draft.NetSalary)
	require.Equal(t, int64(30000), draft.EmployerUnemployment)
}

func TestBuildDraftNetInvariant(t *testing.T) {
	emps := []Employee{
		testEmployee(),
		func() Employee {
			e := testEmployee()
			e.HealthScheme = HealthIsapre
			e.HealthInstitution = "Colmena"
			e.HealthPlanUF = dec(3.2)
			e.Dependents = 2
			e.FamilyAllowance = true
			e.VoluntarySavings = 45000
			return e
		}(),
		func() Employee {
			e := testEmployee()
			e.ContractType = ContractFixedTerm
			e.BaseSalary = 4000000 // over the contribution caps
			return e
		}(),
	}
	ov := Overrides{Advances: 100000, Bonuses: []BonusInput{{Name: "Bono", Amount: 80000, Taxable: true}}}

	for _, emp := range emps {
		draft, err := BuildDraft(emp, testPeriod(t), ov, testParams(t))
		require.NoError(t, err)
		require.Equal(t, draft.TotalEarnings-draft.TotalDiscounts, draft.NetSalary)

		var earned int64
		for _, l := range draft.Earnings {
			earned += l.Amount
		}
		require.Equal(t, draft.TotalEarnings, earned)

		var discounted int64
		for _, l := range draft.Discounts {
			discounted += l.Amount
		}
		require.Equal(t, draft.TotalDiscounts, discounted)
	}
}

func TestBuildDraftFamilyAllowanceIsNonTaxableEarning(t *testing.T) {
	emp := testEmployee()
	emp.Dependents = 2
	emp.FamilyAllowance = true

	draft, err := BuildDraft(emp, testPeriod(t), Overrides{}, testParams(t))
	require.NoError(t, err)

	line := findEarning(t, draft.Earnings, EarningFamilyAllowance)
	require.False(t, line.Taxable)
	// Taxable 1,250,000 falls in the 4,267-per-dependent bracket.
	require.Equal(t, int64(8534), line.Amount)
	require.Equal(t, int64(8534), draft.NonTaxableEarnings)
	require.Equal(t, int64(1258534), draft.TotalEarnings)
	// The allowance is not part of the taxable base.
	require.Equal(t, int64(1250000), draft.TaxableEarnings)
	require.Equal(t, int64(1017194), draft.NetSalary)
}

func TestBuildDraftAdvancesReduceNetOnly(t *testing.T) {
	base, err := BuildDraft(testEmployee(), testPeriod(t), Overrides{}, testParams(t))
	require.NoError(t, err)

	withAdvance, err := BuildDraft(testEmployee(), testPeriod(t), Overrides{Advances: 150000}, testParams(t))
	require.NoError(t, err)

	require.Equal(t, base.TaxableEarnings, withAdvance.TaxableEarnings)
	require.Equal(t, findDiscount(t, base.Discounts, DiscountTax).Amount,
		findDiscount(t, withAdvance.Discounts, DiscountTax).Amount)
	require.Equal(t, base.NetSalary-150000, withAdvance.NetSalary)
}

func TestBuildDraftIsDeterministic(t *testing.T) {
	first, err := BuildDraft(testEmployee(), testPeriod(t), Overrides{}, testParams(t))
	require.NoError(t, err)
	second, err := BuildDraft(testEmployee(), testPeriod(t), Overrides{}, testParams(t))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBuildDraftPropagatesWorkedDaysError(t *testing.T) {
	_, err := BuildDraft(testEmployee(), testPeriod(t), Overrides{AbsentDays: 40}, testParams(t))
	require.ErrorIs(t, err, ErrInvalidWorkedDays)
}
