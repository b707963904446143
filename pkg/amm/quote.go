// Package amm implements constant-product pricing for the ETH/SHINE pool.
//
// All settlement-relevant arithmetic is integer arithmetic on math/big values
// and mirrors the pool contract's own rounding, so a quote never overstates
// what the pool pays out for the same reserves.
package amm

import (
	"math/big"

	"github.com/shopspring/decimal"

	"shine-swap/pkg/amount"
	"shine-swap/pkg/types"
)

// fee: 0.3% => multiplier 997/1000
var (
	feeMul = big.NewInt(997)
	feeDen = big.NewInt(1000)
	bpsDen = big.NewInt(10_000)
)

// Reserves are the pool's holdings in base units at one point in time
type Reserves struct {
	Native *big.Int
	Token  *big.Int
}

// Empty reports whether either side of the pool is zero (or unknown)
func (r Reserves) Empty() bool {
	return r.Native == nil || r.Token == nil || r.Native.Sign() == 0 || r.Token.Sign() == 0
}

// Sides returns (reserveIn, reserveOut) for a direction
func (r Reserves) Sides(dir types.Direction) (*big.Int, *big.Int) {
	if dir == types.TokenToNative {
		return r.Token, r.Native
	}
	return r.Native, r.Token
}

// Quote is an advisory estimate for one input amount
type Quote struct {
	Output        *big.Int // base units of the bought asset
	CurrentRate   *big.Int // pre-trade marginal rate, 18 decimals
	EffectiveRate *big.Int // output per input unit for this trade, 18 decimals
	ImpactBps     *big.Int
	PriceImpact   string // percent with two decimals, e.g. "33.33"
}

// ZeroQuote is returned for zero input or an empty pool
func ZeroQuote() Quote {
	return Quote{
		Output:        new(big.Int),
		CurrentRate:   new(big.Int),
		EffectiveRate: new(big.Int),
		ImpactBps:     new(big.Int),
		PriceImpact:   formatImpact(new(big.Int)),
	}
}

// FeeAdjusted returns in*997/1000, truncated
func FeeAdjusted(in *big.Int) *big.Int {
	v := new(big.Int).Mul(in, feeMul)
	return v.Quo(v, feeDen)
}

// AmountOut applies the fee to amountIn and solves x*y=k for the output.
// Inputs must be non-negative and reserveIn+fee-adjusted input non-zero.
func AmountOut(amountIn, reserveIn, reserveOut *big.Int) *big.Int {
	inWithFee := FeeAdjusted(amountIn)

	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Add(reserveIn, inWithFee)
	if den.Sign() == 0 {
		return new(big.Int)
	}
	return num.Quo(num, den)
}

// Rate returns out*1e18/in, or zero when in is zero
func Rate(out, in *big.Int) *big.Int {
	if in == nil || in.Sign() == 0 {
		return new(big.Int)
	}
	v := new(big.Int).Mul(out, amount.One)
	return v.Quo(v, in)
}

// Compute prices amountIn against the given reserves
func Compute(amountIn *big.Int, dir types.Direction, r Reserves) Quote {
	if amountIn == nil || amountIn.Sign() <= 0 || r.Empty() {
		return ZeroQuote()
	}

	reserveIn, reserveOut := r.Sides(dir)

	out := AmountOut(amountIn, reserveIn, reserveOut)
	current := Rate(reserveOut, reserveIn)
	effective := Rate(out, amountIn)

	impact := new(big.Int)
	if current.Sign() > 0 {
		impact.Sub(current, effective)
		impact.Abs(impact)
		impact.Mul(impact, bpsDen)
		impact.Quo(impact, current)
	}

	return Quote{
		Output:        out,
		CurrentRate:   current,
		EffectiveRate: effective,
		ImpactBps:     impact,
		PriceImpact:   formatImpact(impact),
	}
}

func formatImpact(bps *big.Int) string {
	return decimal.NewFromBigInt(bps, -2).StringFixed(2)
}
