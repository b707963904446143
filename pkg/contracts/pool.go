package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"shine-swap/pkg/wallet"
)

// Pool is the SHINE/ETH constant-product pool. Its ETH balance is the
// native reserve, its SHINE balance (read via the token) the token reserve.
type Pool struct {
	Address  common.Address
	provider wallet.Provider
}

func NewPool(address common.Address, provider wallet.Provider) *Pool {
	return &Pool{Address: address, provider: provider}
}

// SwapETHForShine sends value wei into the pool. No minimum output is passed.
func (p *Pool) SwapETHForShine(ctx context.Context, from common.Address, value *big.Int) (common.Hash, error) {
	data, err := PoolABI.Pack(MethodSwapETHForShine)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s: %w", MethodSwapETHForShine, err)
	}
	return p.provider.SendTransaction(ctx, wallet.TxRequest{From: from, To: p.Address, Value: value, Data: data})
}

// SwapShineForETH sells amount SHINE; the allowance must already cover it
func (p *Pool) SwapShineForETH(ctx context.Context, from common.Address, amount *big.Int) (common.Hash, error) {
	data, err := PoolABI.Pack(MethodSwapShineForETH, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s: %w", MethodSwapShineForETH, err)
	}
	return p.provider.SendTransaction(ctx, wallet.TxRequest{From: from, To: p.Address, Data: data})
}

// SwapEvent is a decoded SwapETHForShine or SwapShineForETH log
type SwapEvent struct {
	Name        string
	User        common.Address
	EthAmount   *big.Int
	ShineAmount *big.Int
	TxHash      common.Hash
	BlockNumber uint64
	Index       uint
}

// EventID returns the topic0 of a pool event
func EventID(name string) common.Hash {
	return PoolABI.Events[name].ID
}

// SwapFilter builds a log query for one event kind initiated by user,
// over the full chain history.
func (p *Pool) SwapFilter(event string, user common.Address) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{p.Address},
		Topics: [][]common.Hash{
			{EventID(event)},
			{common.BytesToHash(user.Bytes())},
		},
	}
}

// FilterSwaps returns raw logs for one event kind initiated by user
func (p *Pool) FilterSwaps(ctx context.Context, event string, user common.Address) ([]types.Log, error) {
	return p.provider.FilterLogs(ctx, p.SwapFilter(event, user))
}

// DecodeSwap decodes a pool swap log. ok is false for logs that are not
// swap events of this pool.
func (p *Pool) DecodeSwap(lg types.Log) (SwapEvent, bool, error) {
	if lg.Address != p.Address || len(lg.Topics) < 2 {
		return SwapEvent{}, false, nil
	}

	var name string
	switch lg.Topics[0] {
	case EventID(EventSwapETHForShine):
		name = EventSwapETHForShine
	case EventID(EventSwapShineForETH):
		name = EventSwapShineForETH
	default:
		return SwapEvent{}, false, nil
	}

	values, err := PoolABI.Unpack(name, lg.Data)
	if err != nil {
		return SwapEvent{}, false, fmt.Errorf("failed to unpack %s: %w", name, err)
	}
	if len(values) != 2 {
		return SwapEvent{}, false, fmt.Errorf("unexpected %s fields: %d", name, len(values))
	}
	first, ok1 := values[0].(*big.Int)
	second, ok2 := values[1].(*big.Int)
	if !ok1 || !ok2 {
		return SwapEvent{}, false, fmt.Errorf("unexpected %s field types", name)
	}

	ev := SwapEvent{
		Name:        name,
		User:        common.BytesToAddress(lg.Topics[1].Bytes()),
		TxHash:      lg.TxHash,
		BlockNumber: lg.BlockNumber,
		Index:       lg.Index,
	}
	if name == EventSwapETHForShine {
		ev.EthAmount, ev.ShineAmount = first, second
	} else {
		ev.ShineAmount, ev.EthAmount = first, second
	}
	return ev, true, nil
}

// EncodeSwapLog builds the log the pool emits for a swap; used to fake
// receipts and log queries.
func (p *Pool) EncodeSwapLog(event string, user common.Address, ethAmount, shineAmount *big.Int) (types.Log, error) {
	var (
		data []byte
		err  error
	)
	args := PoolABI.Events[event].Inputs.NonIndexed()
	if event == EventSwapETHForShine {
		data, err = args.Pack(ethAmount, shineAmount)
	} else {
		data, err = args.Pack(shineAmount, ethAmount)
	}
	if err != nil {
		return types.Log{}, fmt.Errorf("failed to pack %s: %w", event, err)
	}

	return types.Log{
		Address: p.Address,
		Topics:  []common.Hash{EventID(event), common.BytesToHash(user.Bytes())},
		Data:    data,
	}, nil
}
