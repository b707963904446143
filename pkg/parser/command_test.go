package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shine-swap/pkg/types"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		in     string
		amount string
		dir    types.Direction
	}{
		{"swap 0.1 ETH to SHINE", "0.1", types.NativeToToken},
		{"250 shine to eth", "250", types.TokenToNative},
		{".5 weth to shine", ".5", types.NativeToToken},
		{"  1.  ETH   TO   SHINE ", "1.", types.NativeToToken},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			req, err := ParseSwapCommand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.amount, req.Amount)
			assert.Equal(t, tt.dir, req.Direction)
		})
	}
}

func TestParseSwapCommand_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"swap ETH to SHINE",
		". ETH to SHINE",
		"1 ETH to USDC",
		"1 ETH to ETH",
		"-1 ETH to SHINE",
		"1e3 ETH to SHINE",
	} {
		_, err := ParseSwapCommand(in)
		assert.Error(t, err, in)
	}
}

func TestParsePair(t *testing.T) {
	dir, err := ParsePair([]string{"shine", "to", "eth"})
	require.NoError(t, err)
	assert.Equal(t, types.TokenToNative, dir)

	_, err = ParsePair([]string{"ETH", "SHINE"})
	assert.Error(t, err)
}
