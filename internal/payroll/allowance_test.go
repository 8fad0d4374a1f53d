package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFamilyAllowanceBracketsAndEligibility(t *testing.T) {
	brackets := testParams(t).FamilyAllowanceBrackets

	require.Equal(t, int64(44014), FamilyAllowance(500000, 2, true, brackets))
	require.Equal(t, int64(13505), FamilyAllowance(600000, 1, true, brackets))
	require.Equal(t, int64(8534), FamilyAllowance(1250000, 2, true, brackets))

	// The open top bracket pays nothing.
	require.Equal(t, int64(0), FamilyAllowance(1400000, 2, true, brackets))
	require.Equal(t, int64(0), FamilyAllowance(5000000, 3, true, brackets))
}

func TestFamilyAllowanceRequiresEligibilityAndDependents(t *testing.T) {
	brackets := testParams(t).FamilyAllowanceBrackets

	require.Equal(t, int64(0), FamilyAllowance(500000, 2, false, brackets))
	require.Equal(t, int64(0), FamilyAllowance(500000, 0, true, brackets))
}
