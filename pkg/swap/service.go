// Package swap holds the session-scoped swap service: wallet connection,
// reserve reads, advisory quotes, token approval and swap settlement.
package swap

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"shine-swap/pkg/amm"
	"shine-swap/pkg/amount"
	"shine-swap/pkg/contracts"
	"shine-swap/pkg/history"
	"shine-swap/pkg/types"
	"shine-swap/pkg/wallet"
)

// GasBuffer is kept back from the native balance when swapping the maximum
var GasBuffer = amount.MustParse("0.01")

// Options configures a Service
type Options struct {
	ChainID int64
	Token   common.Address
	Pool    common.Address

	// History receives settled swaps; nil disables the local log
	History *history.Log
	Logger  zerolog.Logger

	// OnState is called on every executor state transition
	OnState func(State)
}

// Service is one user session against the pool. Its lifecycle is explicit:
// Connect or Reconnect, then Disconnect or Reset.
type Service struct {
	provider wallet.Provider
	token    *contracts.Token
	pool     *contracts.Pool
	chainID  *big.Int
	history  *history.Log
	log      zerolog.Logger
	onState  func(State)
	now      func() time.Time

	mu        sync.Mutex
	account   common.Address
	connected bool
	busy      bool
	state     State
	balances  types.Balances
}

func NewService(provider wallet.Provider, opts Options) *Service {
	return &Service{
		provider: provider,
		token:    contracts.NewToken(opts.Token, provider),
		pool:     contracts.NewPool(opts.Pool, provider),
		chainID:  big.NewInt(opts.ChainID),
		history:  opts.History,
		log:      opts.Logger,
		onState:  opts.OnState,
		now:      time.Now,
	}
}

// Connect asks the provider for an account and checks the network
func (s *Service) Connect(ctx context.Context) (common.Address, error) {
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		if IsUserRejection(err) {
			return common.Address{}, &rejectedError{cause: err}
		}
		return common.Address{}, fmt.Errorf("failed to request accounts: %w", err)
	}
	if len(accounts) == 0 {
		return common.Address{}, ErrWalletNotConnected
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return common.Address{}, err
	}

	s.mu.Lock()
	s.account = accounts[0]
	s.connected = true
	s.mu.Unlock()

	s.log.Debug().Str("account", accounts[0].Hex()).Msg("wallet connected")
	return accounts[0], nil
}

// Reconnect restores a previously authorised account without prompting.
// Every failure is swallowed and reported as not connected.
func (s *Service) Reconnect(ctx context.Context) (common.Address, bool) {
	accounts, err := s.provider.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		return common.Address{}, false
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return common.Address{}, false
	}

	s.mu.Lock()
	s.account = accounts[0]
	s.connected = true
	s.mu.Unlock()

	if _, err := s.Balances(ctx); err != nil {
		s.log.Debug().Err(err).Msg("reconnect balance read failed")
		s.Disconnect()
		return common.Address{}, false
	}
	return accounts[0], true
}

// Disconnect forgets the connected account
func (s *Service) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.account = common.Address{}
	s.connected = false
	s.balances = types.Balances{}
}

// Reset disconnects and returns the executor to Idle
func (s *Service) Reset() {
	s.Disconnect()

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
}

// Account returns the connected account, if any
func (s *Service) Account() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.connected
}

func (s *Service) requireAccount() (common.Address, error) {
	account, ok := s.Account()
	if !ok {
		return common.Address{}, ErrWalletNotConnected
	}
	return account, nil
}

// ensureNetwork fails unless the provider is on the configured chain. It
// runs before any contract read or write.
func (s *Service) ensureNetwork(ctx context.Context) error {
	return wallet.EnsureChain(ctx, s.provider, s.chainID)
}

// Balances reads and caches the native and token balances of the account
func (s *Service) Balances(ctx context.Context) (types.Balances, error) {
	account, err := s.requireAccount()
	if err != nil {
		return types.Balances{}, err
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return types.Balances{}, err
	}

	native, err := s.provider.BalanceAt(ctx, account, nil)
	if err != nil {
		return types.Balances{}, &wallet.ChainQueryError{Op: "native balance", Err: err}
	}
	token, err := s.token.BalanceOf(ctx, account, nil)
	if err != nil {
		return types.Balances{}, &wallet.ChainQueryError{Op: "token balance", Err: err}
	}

	b := types.Balances{Native: native, Token: token}
	s.mu.Lock()
	s.balances = b
	s.mu.Unlock()
	return b, nil
}

// CachedBalances returns the balances from the last successful read
func (s *Service) CachedBalances() types.Balances {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances
}

// MaxSwapAmount is the full token balance, or the native balance minus
// GasBuffer floored at zero.
func (s *Service) MaxSwapAmount(ctx context.Context, dir types.Direction) (*big.Int, error) {
	b, err := s.Balances(ctx)
	if err != nil {
		return nil, err
	}
	if dir == types.TokenToNative {
		return new(big.Int).Set(b.Token), nil
	}

	limit := new(big.Int).Sub(b.Native, GasBuffer)
	if limit.Sign() < 0 {
		limit.SetInt64(0)
	}
	return limit, nil
}

// Allowance returns how much SHINE the pool may move for the account
func (s *Service) Allowance(ctx context.Context) (*big.Int, error) {
	account, err := s.requireAccount()
	if err != nil {
		return nil, err
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return nil, err
	}

	v, err := s.token.Allowance(ctx, account, s.pool.Address)
	if err != nil {
		return nil, &wallet.ChainQueryError{Op: "allowance", Err: err}
	}
	return v, nil
}

// AddTokenToWallet asks the wallet to track SHINE
func (s *Service) AddTokenToWallet(ctx context.Context) (bool, error) {
	if _, err := s.requireAccount(); err != nil {
		return false, err
	}

	added, err := s.provider.WatchAsset(ctx, wallet.Asset{
		Address:  s.token.Address,
		Symbol:   types.TokenSymbol,
		Decimals: amount.Decimals,
	})
	if err != nil {
		return false, fmt.Errorf("failed to add token to wallet: %w", err)
	}
	return added, nil
}

// Quote is the advisory quote for a user-entered amount. It never fails:
// bad input or a failed read yields the zero quote.
func (s *Service) Quote(ctx context.Context, amountStr string, dir types.Direction) amm.Quote {
	in, err := amount.Parse(amountStr)
	if err != nil || in.Sign() <= 0 {
		return amm.ZeroQuote()
	}

	reserves, err := s.Reserves(ctx, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("quote unavailable")
		return amm.ZeroQuote()
	}
	return amm.Compute(in, dir, reserves)
}
