package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"shine-swap/pkg/wallet"
)

// Token is an ERC20 reached through a wallet provider
type Token struct {
	Address  common.Address
	provider wallet.Provider
}

func NewToken(address common.Address, provider wallet.Provider) *Token {
	return &Token{Address: address, provider: provider}
}

// BalanceOf returns the token balance of account at block (nil = latest)
func (t *Token) BalanceOf(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	return t.callUint(ctx, block, "balanceOf", account)
}

// Allowance returns how much spender may move on behalf of owner
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callUint(ctx, nil, "allowance", owner, spender)
}

// Approve submits approve(spender, amount) from owner
func (t *Token) Approve(ctx context.Context, owner, spender common.Address, amount *big.Int) (common.Hash, error) {
	data, err := ERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack approve data: %w", err)
	}
	return t.provider.SendTransaction(ctx, wallet.TxRequest{From: owner, To: t.Address, Data: data})
}

func (t *Token) callUint(ctx context.Context, block *big.Int, method string, args ...interface{}) (*big.Int, error) {
	data, err := ERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", method, err)
	}

	to := t.Address
	result, err := t.provider.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	values, err := ERC20ABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s outputs: %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type: %T", method, values[0])
	}
	return v, nil
}
