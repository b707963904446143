package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"0", "0"},
		{"  ", "0"},
		{"1", "1000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.000000000000000001", "1"},
		{".25", "250000000000000000"},
		{"5.", "5000000000000000000"},
		// the 19th fractional digit is dropped, never rounded up
		{"0.0000000000000000019", "1"},
		{"123456789.123456789123456789", "123456789123456789123456789"},
	}

	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"-1", "abc", "1e18", "1.2.3", ".", "0x10", "1,5", "+3"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "0.5", "42.000000000000000001", "1000000", "0.123456789012345678"} {
		v, err := Parse(s)
		require.NoError(t, err)

		again, err := Parse(Format(v))
		require.NoError(t, err)
		assert.Equal(t, v.String(), again.String(), s)
	}

	assert.Equal(t, "1.5", Format(big.NewInt(1_500_000_000_000_000_000)))
	assert.Equal(t, "0", Format(nil))
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "0.000000", FormatDisplay("0"))
	assert.Equal(t, "0.000000", FormatDisplay("junk"))
	assert.Equal(t, "0.000500", FormatDisplay("0.0005"))
	assert.Equal(t, "0.5000", FormatDisplay("0.5"))
	assert.Equal(t, "12.346", FormatDisplay("12.3456"))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "0.000000", FormatRate(nil))
	assert.Equal(t, "4000.000000", FormatRate(MustParse("4000")))
	assert.Equal(t, "0.000250", FormatRate(MustParse("0.00025")))
}
