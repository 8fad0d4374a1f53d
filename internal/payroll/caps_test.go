package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyCapsClampsEachBase(t *testing.T) {
	p := testParams(t)

	bases := ApplyCaps(5000000, p)
	// 87.8 UF and 131.9 UF at 37,000 pesos each.
	require.Equal(t, int64(3248600), bases.Pension)
	require.Equal(t, int64(4880300), bases.Unemployment)

	below := ApplyCaps(1250000, p)
	require.Equal(t, int64(1250000), below.Pension)
	require.Equal(t, int64(1250000), below.Unemployment)
}

func TestApplyCapsZeroAndNegative(t *testing.T) {
	p := testParams(t)

	require.Equal(t, ContributionBases{}, ApplyCaps(0, p))
	require.Equal(t, ContributionBases{}, ApplyCaps(-100, p))
}

func TestApplyCapsMonotonicAndIdempotent(t *testing.T) {
	p := testParams(t)

	var prev int64
	for _, taxable := range []int64{0, 500000, 1000000, 3248600, 3248601, 10000000} {
		got := ApplyCaps(taxable, p).Pension
		require.GreaterOrEqual(t, got, prev, "capped base must not decrease as taxable grows")
		require.Equal(t, got, ApplyCaps(got, p).Pension, "capping a capped base must be a no-op")
		prev = got
	}
}
