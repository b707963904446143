package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"shine-swap/pkg/amount"
	"shine-swap/pkg/types"
	"shine-swap/pkg/wallet"
)

// State of a single swap attempt
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAwaitingApproval
	StateAwaitingConfirmation
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingApproval:
		return "awaiting approval"
	case StateAwaitingConfirmation:
		return "awaiting confirmation"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result of a settled swap
type Result struct {
	Hash     common.Hash
	Record   types.SwapRecord
	Balances types.Balances
	// ApprovalHash is set when an approval had to be mined first
	ApprovalHash *common.Hash
}

// State returns the state of the current or last swap attempt
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) setState(st State) {
	s.mu.Lock()
	s.state = st
	hook := s.onState
	s.mu.Unlock()

	s.log.Debug().Str("state", st.String()).Msg("swap state")
	if hook != nil {
		hook(st)
	}
}

// Execute swaps amountStr of the direction's source asset. The pool is sent
// the entered amount only; no minimum output is passed, so the swap settles
// at whatever rate the pool computes on-chain. Nothing is retried.
func (s *Service) Execute(ctx context.Context, amountStr string, dir types.Direction) (*Result, error) {
	account, err := s.requireAccount()
	if err != nil {
		return nil, err
	}
	if err := s.ensureNetwork(ctx); err != nil {
		return nil, err
	}
	in, err := amount.Parse(amountStr)
	if err != nil {
		return nil, err
	}
	if in.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", amount.ErrInvalidAmount)
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrSwapInProgress
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	quote := s.Quote(ctx, amountStr, dir)
	result := &Result{}

	s.setState(StateSubmitting)

	var hash common.Hash
	switch dir {
	case types.NativeToToken:
		hash, err = s.pool.SwapETHForShine(ctx, account, in)
	case types.TokenToNative:
		approvalHash, approved, aerr := s.ensureAllowance(ctx, account, s.pool.Address, in, func(common.Hash) {
			s.setState(StateAwaitingApproval)
		})
		if aerr != nil {
			return nil, s.fail(aerr)
		}
		if approved {
			result.ApprovalHash = &approvalHash
			s.setState(StateSubmitting)
		}
		hash, err = s.pool.SwapShineForETH(ctx, account, in)
	default:
		return nil, fmt.Errorf("unknown swap direction %d", int(dir))
	}
	if err != nil {
		return nil, s.fail(submitError(err))
	}

	s.setState(StateAwaitingConfirmation)

	receipt, err := s.provider.WaitMined(ctx, hash)
	if err != nil {
		return nil, s.fail(fmt.Errorf("failed waiting for swap %s: %w", hash.Hex(), err))
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, s.fail(fmt.Errorf("%w: transaction %s", ErrExecutionReverted, hash.Hex()))
	}

	result.Hash = hash
	result.Record = types.SwapRecord{
		Hash:       hash.Hex(),
		Status:     types.StatusSuccess,
		FromToken:  dir.FromSymbol(),
		ToToken:    dir.ToSymbol(),
		FromAmount: amount.Format(in),
		ToAmount:   amount.Format(s.settledOutput(receipt, account, dir, quote.Output)),
		Timestamp:  s.now().UnixMilli(),
	}

	if s.history != nil {
		if err := s.history.Append(result.Record); err != nil {
			s.log.Warn().Err(err).Msg("failed to record swap locally")
		}
	}

	s.setState(StateSettled)

	balances, err := s.Balances(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to refresh balances")
	}
	result.Balances = balances

	return result, nil
}

func (s *Service) fail(err error) error {
	s.setState(StateFailed)
	s.log.Debug().Err(err).Str("outcome", Classify(err).String()).Msg("swap failed")
	return err
}

// submitError classifies a submission error. Signer rejections become
// ErrUserRejected; chain query failures pass through; anything else is
// treated as the swap reverting.
func submitError(err error) error {
	err = classifySubmit(err)
	if errors.Is(err, ErrUserRejected) {
		return err
	}
	var cqe *wallet.ChainQueryError
	if errors.As(err, &cqe) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrExecutionReverted, err)
}

// settledOutput takes the received amount from the pool's swap event in the
// receipt, falling back to the advisory quote.
func (s *Service) settledOutput(receipt *ethtypes.Receipt, account common.Address, dir types.Direction, quoted *big.Int) *big.Int {
	for _, lg := range receipt.Logs {
		if lg == nil {
			continue
		}
		ev, ok, err := s.pool.DecodeSwap(*lg)
		if err != nil || !ok || ev.User != account {
			continue
		}
		if dir == types.NativeToToken {
			return ev.ShineAmount
		}
		return ev.EthAmount
	}
	return quoted
}
