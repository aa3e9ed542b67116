package domain

import (
	"math/bits"

	"github.com/shopspring/decimal"
)

// Token amounts are unsigned 64-bit integers at 6-decimal fixed point:
// 1_000_000 units == 1 token.
const (
	// AmountScale is the number of fixed-point decimals per token.
	AmountScale = 6

	// MinBet is the smallest accepted wager (1 token).
	MinBet uint64 = 1_000_000

	// MaxBet is the largest accepted wager (10,000 tokens).
	MaxBet uint64 = 10_000_000_000

	// MaxFeeBps caps the protocol fee at 10%.
	MaxFeeBps uint16 = 1000

	// BpsDenominator converts basis points to a fraction.
	BpsDenominator uint64 = 10_000
)

// CheckedAdd returns a+b or ErrOverflow. Amounts never saturate silently.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub returns a-b or ErrUnderflow.
func CheckedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return diff, nil
}

// MulDiv computes floor(a*b/div) using a 128-bit intermediate so the product
// cannot overflow before the final narrowing division. Returns
// ErrDivisionByZero when div is zero and ErrOverflow when the quotient does
// not fit in 64 bits.
func MulDiv(a, b, div uint64) (uint64, error) {
	if div == 0 {
		return 0, ErrDivisionByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, div)
	return quo, nil
}

// FormatAmount renders a fixed-point amount as a human-readable decimal
// token quantity, e.g. 1_500_000 -> "1.5".
func FormatAmount(amount uint64) string {
	return decimal.NewFromUint64(amount).Shift(-AmountScale).String()
}

// ParseAmount converts a decimal token quantity (e.g. "1.5") into
// fixed-point units. Fractions finer than the scale or negative values are
// rejected with ErrInvalidAmount.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	scaled := d.Shift(AmountScale)
	if scaled.IsNegative() || !scaled.IsInteger() {
		return 0, ErrInvalidAmount
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, ErrInvalidAmount
	}
	return bi.Uint64(), nil
}
