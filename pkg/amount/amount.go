// Package amount converts between human decimal strings and 18-decimal base units.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals used by both ETH and SHINE
const Decimals = 18

// ErrInvalidAmount is returned for input that is not a non-negative decimal
var ErrInvalidAmount = errors.New("invalid amount")

var (
	amountPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)$`)

	// One is 10^18, one whole unit in base units
	One = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
)

// Parse converts a decimal string into base units. Digits past the 18th
// fractional place are truncated. Empty input is zero.
func Parse(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return new(big.Int), nil
	}
	if !amountPattern.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}

	return d.Shift(Decimals).Truncate(0).BigInt(), nil
}

// MustParse is Parse for constants; it panics on bad input
func MustParse(s string) *big.Int {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Format renders base units as an exact decimal string without trailing zeros
func Format(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -Decimals).String()
}

// FormatDisplay renders a decimal string for humans. Presentation only.
func FormatDisplay(s string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsZero() {
		return "0.000000"
	}

	f, _ := d.Float64()
	switch {
	case f < 0.000001:
		return fmt.Sprintf("%.6g", f)
	case f < 0.001:
		return d.StringFixed(6)
	case f < 1:
		return d.StringFixed(4)
	default:
		return d.StringFixed(3)
	}
}

// FormatRate renders an 18-decimal rate with six fractional digits
func FormatRate(rate *big.Int) string {
	if rate == nil || rate.Sign() == 0 {
		return "0.000000"
	}
	d := decimal.NewFromBigInt(rate, -Decimals)
	if f, _ := d.Float64(); f < 0.000001 {
		return fmt.Sprintf("%.6g", f)
	}
	return d.StringFixed(6)
}
