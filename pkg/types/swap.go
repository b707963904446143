package types

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	NativeSymbol = "ETH"
	TokenSymbol  = "SHINE"
)

// Direction selects which side of the pool a swap pays into
type Direction int

const (
	NativeToToken Direction = iota // ETH -> SHINE
	TokenToNative                  // SHINE -> ETH
)

// FromSymbol returns the symbol of the asset being sold
func (d Direction) FromSymbol() string {
	if d == TokenToNative {
		return TokenSymbol
	}
	return NativeSymbol
}

// ToSymbol returns the symbol of the asset being bought
func (d Direction) ToSymbol() string {
	if d == TokenToNative {
		return NativeSymbol
	}
	return TokenSymbol
}

// Reverse flips the direction
func (d Direction) Reverse() Direction {
	if d == TokenToNative {
		return NativeToToken
	}
	return TokenToNative
}

func (d Direction) String() string {
	return d.FromSymbol() + "->" + d.ToSymbol()
}

// DirectionFromSymbols resolves a pair of symbols such as ("eth", "shine")
func DirectionFromSymbols(from, to string) (Direction, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	switch {
	case from == NativeSymbol && to == TokenSymbol:
		return NativeToToken, nil
	case from == TokenSymbol && to == NativeSymbol:
		return TokenToNative, nil
	default:
		return 0, fmt.Errorf("unsupported pair %s -> %s (only %s <-> %s)", from, to, NativeSymbol, TokenSymbol)
	}
}

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Amount    string
	Direction Direction
}

// Status of a recorded swap
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// SwapRecord is one entry of the local swap log or of a reconstructed history
type SwapRecord struct {
	Hash       string `json:"hash"`
	Status     Status `json:"status"`
	FromToken  string `json:"fromToken"`
	ToToken    string `json:"toToken"`
	FromAmount string `json:"fromAmount"`
	ToAmount   string `json:"toAmount"`
	Timestamp  int64  `json:"timestamp"` // unix millis
}

// Balances of the connected account in base units
type Balances struct {
	Native *big.Int
	Token  *big.Int
}

// Of returns the balance of the asset sold in the given direction
func (b Balances) Of(d Direction) *big.Int {
	if d == TokenToNative {
		return b.Token
	}
	return b.Native
}
