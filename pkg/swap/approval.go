package swap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"shine-swap/pkg/wallet"
)

// EnsureAllowance makes sure spender may move at least required tokens for
// owner. When the current allowance falls short it approves twice the
// required amount and waits for the approval to be mined. approved is false
// when no transaction was sent.
func (s *Service) EnsureAllowance(ctx context.Context, owner, spender common.Address, required *big.Int) (hash common.Hash, approved bool, err error) {
	if err := s.ensureNetwork(ctx); err != nil {
		return common.Hash{}, false, err
	}
	return s.ensureAllowance(ctx, owner, spender, required, nil)
}

func (s *Service) ensureAllowance(ctx context.Context, owner, spender common.Address, required *big.Int, onSubmitted func(common.Hash)) (common.Hash, bool, error) {
	current, err := s.token.Allowance(ctx, owner, spender)
	if err != nil {
		return common.Hash{}, false, &wallet.ChainQueryError{Op: "allowance", Err: err}
	}
	if current.Cmp(required) >= 0 {
		return common.Hash{}, false, nil
	}

	approveAmount := new(big.Int).Mul(required, big.NewInt(2))
	s.log.Debug().
		Str("current", current.String()).
		Str("approve", approveAmount.String()).
		Msg("allowance too low, approving")

	hash, err := s.token.Approve(ctx, owner, spender, approveAmount)
	if err != nil {
		return common.Hash{}, false, fmt.Errorf("%w: %w", ErrApprovalFailed, classifySubmit(err))
	}
	if onSubmitted != nil {
		onSubmitted(hash)
	}

	receipt, err := s.provider.WaitMined(ctx, hash)
	if err != nil {
		return hash, true, fmt.Errorf("%w: waiting for %s: %w", ErrApprovalFailed, hash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return hash, true, fmt.Errorf("%w: transaction %s reverted", ErrApprovalFailed, hash.Hex())
	}
	return hash, true, nil
}
