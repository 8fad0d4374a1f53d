package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeTaxExemptRange(t *testing.T) {
	p := testParams(t)

	require.Equal(t, int64(0), ComputeTax(0, p))
	require.Equal(t, int64(0), ComputeTax(-5000, p))
	// Anything below 13.5 UTM (877,500) falls in the zero-rate bracket.
	require.Equal(t, int64(0), ComputeTax(877499, p))
	// Exactly at the threshold the marginal formula still yields zero.
	require.Equal(t, int64(0), ComputeTax(877500, p))
}

func TestComputeTaxMarginalFormula(t *testing.T) {
	p := testParams(t)

	// 1,014,125 / 65,000 = 15.6019... UTM -> 4% bracket with 0.54 UTM deduction.
	require.Equal(t, int64(5465), ComputeTax(1014125, p))
}

func TestComputeTaxContinuousAtBracketBoundary(t *testing.T) {
	p := testParams(t)

	// 30 UTM = 1,950,000 pesos. The deduction construction makes the tax
	// function continuous: both sides of the boundary pay the same.
	below := ComputeTax(1949999, p)
	at := ComputeTax(1950000, p)
	require.Equal(t, int64(42900), below)
	require.Equal(t, int64(42900), at)
}

func TestComputeTaxTopBracketIsOpenEnded(t *testing.T) {
	p := testParams(t)

	// 100 UTM = 6,500,000 pesos -> 13.5% with 4.49 UTM deduction.
	// 6,500,000 * 0.135 - 4.49 * 65,000 = 585,650.
	require.Equal(t, int64(585650), ComputeTax(6500000, p))
}

func TestComputeTaxMonotonic(t *testing.T) {
	p := testParams(t)

	var prev int64
	for _, net := range []int64{100000, 877500, 1000000, 1950000, 3250000, 6500000, 20000000} {
		got := ComputeTax(net, p)
		require.GreaterOrEqual(t, got, prev, "tax must not decrease as income grows")
		prev = got
	}
}
