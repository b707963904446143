// Package history rebuilds a user's swaps from pool events and keeps the
// capped local log of swaps submitted from this machine.
package history

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"shine-swap/pkg/amount"
	"shine-swap/pkg/contracts"
	"shine-swap/pkg/types"
	"shine-swap/pkg/wallet"
)

// Reconstructor replays pool swap events into SwapRecords. It keeps no
// state between calls.
type Reconstructor struct {
	provider wallet.Provider
	pool     *contracts.Pool
	chainID  *big.Int
	log      zerolog.Logger

	// MaxLookups bounds concurrent block lookups; zero means unbounded
	MaxLookups int
}

// NewReconstructor reads pool events through provider, which must be on chainID
func NewReconstructor(provider wallet.Provider, pool common.Address, chainID int64, log zerolog.Logger) *Reconstructor {
	return &Reconstructor{
		provider:   provider,
		pool:       contracts.NewPool(pool, provider),
		chainID:    big.NewInt(chainID),
		log:        log,
		MaxLookups: 8,
	}
}

// SwapHistory returns every swap user initiated against the pool, newest first.
// Failed transactions emit no event and therefore never appear.
func (r *Reconstructor) SwapHistory(ctx context.Context, user common.Address) ([]types.SwapRecord, error) {
	if err := wallet.EnsureChain(ctx, r.provider, r.chainID); err != nil {
		return nil, err
	}

	var events []contracts.SwapEvent
	for _, name := range []string{contracts.EventSwapETHForShine, contracts.EventSwapShineForETH} {
		logs, err := r.pool.FilterSwaps(ctx, name, user)
		if err != nil {
			return nil, &wallet.ChainQueryError{Op: "filter " + name, Err: err}
		}
		for _, lg := range logs {
			ev, ok, err := r.pool.DecodeSwap(lg)
			if err != nil {
				return nil, &wallet.ChainQueryError{Op: "decode " + name, Err: err}
			}
			if ok && ev.Name == name {
				events = append(events, ev)
			}
		}
	}

	records := make([]types.SwapRecord, len(events))

	g, gctx := errgroup.WithContext(ctx)
	if r.MaxLookups > 0 {
		g.SetLimit(r.MaxLookups)
	}
	for i, ev := range events {
		g.Go(func() error {
			header, err := r.provider.HeaderByNumber(gctx, new(big.Int).SetUint64(ev.BlockNumber))
			if err != nil {
				return &wallet.ChainQueryError{Op: fmt.Sprintf("block %d", ev.BlockNumber), Err: err}
			}
			records[i] = RecordFromEvent(ev, int64(header.Time)*1000)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp > records[j].Timestamp
		}
		return records[i].Hash < records[j].Hash
	})

	r.log.Debug().Str("user", user.Hex()).Int("swaps", len(records)).Msg("history reconstructed")
	return records, nil
}

// RecordFromEvent maps a pool swap event to a successful SwapRecord
func RecordFromEvent(ev contracts.SwapEvent, tsMillis int64) types.SwapRecord {
	rec := types.SwapRecord{
		Hash:      ev.TxHash.Hex(),
		Status:    types.StatusSuccess,
		Timestamp: tsMillis,
	}
	if ev.Name == contracts.EventSwapETHForShine {
		rec.FromToken, rec.ToToken = types.NativeSymbol, types.TokenSymbol
		rec.FromAmount, rec.ToAmount = amount.Format(ev.EthAmount), amount.Format(ev.ShineAmount)
	} else {
		rec.FromToken, rec.ToToken = types.TokenSymbol, types.NativeSymbol
		rec.FromAmount, rec.ToAmount = amount.Format(ev.ShineAmount), amount.Format(ev.EthAmount)
	}
	return rec
}
