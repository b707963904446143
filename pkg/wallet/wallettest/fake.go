// Package wallettest provides an in-memory wallet.Provider that simulates the
// SHINE token and pool closely enough to drive the swap flow in tests.
package wallettest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"shine-swap/pkg/amm"
	"shine-swap/pkg/contracts"
	"shine-swap/pkg/wallet"
)

type allowanceKey struct {
	owner, spender common.Address
}

// Fake is a single-account chain with one ERC20 and one pool
type Fake struct {
	mu sync.Mutex

	ChainIDValue int64
	Account      common.Address // zero means no accounts exposed
	Token        common.Address
	Pool         common.Address

	native     map[common.Address]*big.Int
	tokens     map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int

	// BlockTimes maps block number to unix seconds
	BlockTimes map[uint64]uint64
	Logs       []types.Log

	receipts map[common.Hash]*types.Receipt
	Sent     []wallet.TxRequest
	Watched  []wallet.Asset

	// Failure injection
	SendErr   func(req wallet.TxRequest) error
	ReadErr   error
	HeaderErr error
	Revert    func(req wallet.TxRequest) bool

	// Calls counts contract reads
	Calls int
	// Filters counts log queries
	Filters int

	block uint64
}

// New returns a Sepolia-like chain funding account with native wei and SHINE
func New(account, token, pool common.Address) *Fake {
	return &Fake{
		ChainIDValue: 11155111,
		Account:      account,
		Token:        token,
		Pool:         pool,
		native:       map[common.Address]*big.Int{},
		tokens:       map[common.Address]*big.Int{},
		allowances:   map[allowanceKey]*big.Int{},
		BlockTimes:   map[uint64]uint64{},
		receipts:     map[common.Hash]*types.Receipt{},
		block:        100,
	}
}

func (f *Fake) SetNative(addr common.Address, v *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.native[addr] = new(big.Int).Set(v)
}

func (f *Fake) SetToken(addr common.Address, v *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[addr] = new(big.Int).Set(v)
}

func (f *Fake) SetAllowance(owner, spender common.Address, v *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowances[allowanceKey{owner, spender}] = new(big.Int).Set(v)
}

func (f *Fake) NativeOf(addr common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.native, addr)
}

func (f *Fake) TokenOf(addr common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.tokens, addr)
}

func (f *Fake) AllowanceOf(owner, spender common.Address) *big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return get(f.allowances, allowanceKey{owner, spender})
}

// SentCount returns how many transactions were broadcast
func (f *Fake) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

func get[K comparable](m map[K]*big.Int, k K) *big.Int {
	if v, ok := m[k]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

func (f *Fake) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if f.Account == (common.Address{}) {
		return nil, &wallet.RejectedError{Message: "user rejected account access"}
	}
	return []common.Address{f.Account}, nil
}

func (f *Fake) Accounts(ctx context.Context) ([]common.Address, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	if f.Account == (common.Address{}) {
		return nil, nil
	}
	return []common.Address{f.Account}, nil
}

func (f *Fake) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(f.ChainIDValue), nil
}

func (f *Fake) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	return f.NativeOf(account), nil
}

func (f *Fake) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	if f.HeaderErr != nil {
		return nil, f.HeaderErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.block
	if number != nil {
		n = number.Uint64()
	}
	ts, ok := f.BlockTimes[n]
	if !ok {
		return nil, ethereum.NotFound
	}
	return &types.Header{Number: new(big.Int).SetUint64(n), Time: ts}, nil
}

func (f *Fake) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	if msg.To == nil || *msg.To != f.Token {
		return nil, fmt.Errorf("no contract at %v", msg.To)
	}
	method, err := contracts.ERC20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.Calls++
	var out *big.Int
	switch method.Name {
	case "balanceOf":
		out = get(f.tokens, args[0].(common.Address))
	case "allowance":
		out = get(f.allowances, allowanceKey{args[0].(common.Address), args[1].(common.Address)})
	default:
		f.mu.Unlock()
		return nil, fmt.Errorf("unsupported call %s", method.Name)
	}
	f.mu.Unlock()

	return method.Outputs.Pack(out)
}

func (f *Fake) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	if f.ReadErr != nil {
		return nil, f.ReadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Filters++
	var out []types.Log
	for _, lg := range f.Logs {
		if matches(q, lg) {
			out = append(out, lg)
		}
	}
	return out, nil
}

func matches(q ethereum.FilterQuery, lg types.Log) bool {
	if len(q.Addresses) > 0 {
		found := false
		for _, a := range q.Addresses {
			found = found || a == lg.Address
		}
		if !found {
			return false
		}
	}
	for i, alts := range q.Topics {
		if len(alts) == 0 {
			continue
		}
		if i >= len(lg.Topics) {
			return false
		}
		found := false
		for _, t := range alts {
			found = found || t == lg.Topics[i]
		}
		if !found {
			return false
		}
	}
	return true
}

// SendTransaction applies approve and swap calls to the simulated state and
// stores a receipt. It never retries and never fails on its own unless
// SendErr or Revert say so.
func (f *Fake) SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error) {
	if f.SendErr != nil {
		if err := f.SendErr(req); err != nil {
			return common.Hash{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Sent = append(f.Sent, req)
	f.block++
	if _, ok := f.BlockTimes[f.block]; !ok {
		f.BlockTimes[f.block] = 1_700_000_000 + f.block*12
	}
	hash := crypto.Keccak256Hash(big.NewInt(int64(len(f.Sent))).Bytes(), req.Data)

	receipt := &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      hash,
		BlockNumber: new(big.Int).SetUint64(f.block),
	}

	if f.Revert != nil && f.Revert(req) {
		receipt.Status = types.ReceiptStatusFailed
	} else if lg, err := f.apply(req); err != nil {
		receipt.Status = types.ReceiptStatusFailed
	} else if lg != nil {
		lg.TxHash = hash
		lg.BlockNumber = f.block
		lg.Index = uint(len(f.Logs))
		f.Logs = append(f.Logs, *lg)
		receipt.Logs = []*types.Log{lg}
	}

	f.receipts[hash] = receipt
	return hash, nil
}

func (f *Fake) apply(req wallet.TxRequest) (*types.Log, error) {
	from := req.From
	pool := contracts.NewPool(f.Pool, f)

	switch req.To {
	case f.Token:
		method, err := contracts.ERC20ABI.MethodById(req.Data[:4])
		if err != nil || method.Name != "approve" {
			return nil, errors.New("unsupported token call")
		}
		args, err := method.Inputs.Unpack(req.Data[4:])
		if err != nil {
			return nil, err
		}
		f.allowances[allowanceKey{from, args[0].(common.Address)}] = args[1].(*big.Int)
		return nil, nil

	case f.Pool:
		method, err := contracts.PoolABI.MethodById(req.Data[:4])
		if err != nil {
			return nil, err
		}
		reserves := amm.Reserves{Native: get(f.native, f.Pool), Token: get(f.tokens, f.Pool)}

		switch method.Name {
		case contracts.MethodSwapETHForShine:
			in := req.Value
			if in == nil || in.Sign() == 0 || get(f.native, from).Cmp(in) < 0 {
				return nil, errors.New("bad value")
			}
			out := amm.AmountOut(in, reserves.Native, reserves.Token)
			f.native[from] = new(big.Int).Sub(get(f.native, from), in)
			f.native[f.Pool] = new(big.Int).Add(reserves.Native, in)
			f.tokens[f.Pool] = new(big.Int).Sub(reserves.Token, out)
			f.tokens[from] = new(big.Int).Add(get(f.tokens, from), out)
			lg, err := pool.EncodeSwapLog(contracts.EventSwapETHForShine, from, in, out)
			return &lg, err

		case contracts.MethodSwapShineForETH:
			args, err := method.Inputs.Unpack(req.Data[4:])
			if err != nil {
				return nil, err
			}
			in := args[0].(*big.Int)
			key := allowanceKey{from, f.Pool}
			if get(f.allowances, key).Cmp(in) < 0 || get(f.tokens, from).Cmp(in) < 0 {
				return nil, errors.New("insufficient allowance or balance")
			}
			out := amm.AmountOut(in, reserves.Token, reserves.Native)
			f.allowances[key] = new(big.Int).Sub(get(f.allowances, key), in)
			f.tokens[from] = new(big.Int).Sub(get(f.tokens, from), in)
			f.tokens[f.Pool] = new(big.Int).Add(reserves.Token, in)
			f.native[f.Pool] = new(big.Int).Sub(reserves.Native, out)
			f.native[from] = new(big.Int).Add(get(f.native, from), out)
			lg, err := pool.EncodeSwapLog(contracts.EventSwapShineForETH, from, out, in)
			return &lg, err
		}
	}
	return nil, fmt.Errorf("unsupported call to %s", req.To.Hex())
}

func (f *Fake) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *Fake) WatchAsset(ctx context.Context, asset wallet.Asset) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Watched = append(f.Watched, asset)
	return true, nil
}

var _ wallet.Provider = (*Fake)(nil)
