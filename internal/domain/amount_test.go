package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedAdd(t *testing.T) {
	sum, err := CheckedAdd(1_000_000, 2_500_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_500_000), sum)
}

func TestCheckedAdd_Overflow(t *testing.T) {
	_, err := CheckedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestCheckedSub(t *testing.T) {
	diff, err := CheckedSub(5_000_000, 2_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000), diff)
}

func TestCheckedSub_Underflow(t *testing.T) {
	_, err := CheckedSub(1, 2)
	assert.ErrorIs(t, err, ErrUnderflow)
}

func TestMulDiv_Basic(t *testing.T) {
	// 1e9 * 9500 / 10000 = 950_000_000
	got, err := MulDiv(1_000_000_000, 9_500, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(950_000_000), got)
}

func TestMulDiv_RoundsDown(t *testing.T) {
	got, err := MulDiv(7, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got) // 21/2 floors to 10
}

func TestMulDiv_LargeIntermediate(t *testing.T) {
	// a*b overflows 64 bits but the quotient fits.
	got, err := MulDiv(math.MaxUint64, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64/2), got)
}

func TestMulDiv_DivisionByZero(t *testing.T) {
	_, err := MulDiv(1, 1, 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestMulDiv_QuotientOverflow(t *testing.T) {
	_, err := MulDiv(math.MaxUint64, 3, 2)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1.5", FormatAmount(1_500_000))
	assert.Equal(t, "0.000001", FormatAmount(1))
	assert.Equal(t, "10000", FormatAmount(10_000_000_000))
	assert.Equal(t, "0", FormatAmount(0))
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("1.5")
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000), got)

	got, err = ParseAmount("0.000001")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, s := range []string{"", "abc", "-1", "0.0000001", "18446744073709551616"} {
		_, err := ParseAmount(s)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", s)
	}
}
