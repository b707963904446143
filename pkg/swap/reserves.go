package swap

import (
	"context"
	"math/big"

	"shine-swap/pkg/amm"
	"shine-swap/pkg/wallet"
)

// Reserves reads the pool's native balance, then its token balance, at
// block (nil = latest). Reserves are never cached.
func (s *Service) Reserves(ctx context.Context, block *big.Int) (amm.Reserves, error) {
	if err := s.ensureNetwork(ctx); err != nil {
		return amm.Reserves{}, err
	}

	native, err := s.provider.BalanceAt(ctx, s.pool.Address, block)
	if err != nil {
		return amm.Reserves{}, &wallet.ChainQueryError{Op: "pool native reserve", Err: err}
	}
	token, err := s.token.BalanceOf(ctx, s.pool.Address, block)
	if err != nil {
		return amm.Reserves{}, &wallet.ChainQueryError{Op: "pool token reserve", Err: err}
	}

	return amm.Reserves{Native: native, Token: token}, nil
}
