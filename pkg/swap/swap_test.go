package swap

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shine-swap/pkg/amm"
	"shine-swap/pkg/amount"
	"shine-swap/pkg/contracts"
	"shine-swap/pkg/history"
	"shine-swap/pkg/types"
	"shine-swap/pkg/wallet"
	"shine-swap/pkg/wallet/wallettest"
)

const sepolia = 11155111

var (
	user  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token = common.HexToAddress("0x7C5a0C4fa68c47740Cd51Dd6dFad5E754d019c05")
	pool  = common.HexToAddress("0x476DaA7f3c23C7e46A526c20288CF9e74D08a564")
)

func eth(s string) *big.Int { return amount.MustParse(s) }

type fixture struct {
	fake   *wallettest.Fake
	svc    *Service
	log    *history.Log
	mu     sync.Mutex
	states []State
}

func (f *fixture) seen() []State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]State(nil), f.states...)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fake := wallettest.New(user, token, pool)
	fake.SetNative(user, eth("10"))
	fake.SetToken(user, eth("1000"))
	fake.SetNative(pool, eth("100"))
	fake.SetToken(pool, eth("400000"))

	l, err := history.OpenLog(filepath.Join(t.TempDir(), "txs.json"))
	require.NoError(t, err)

	f := &fixture{fake: fake, log: l}
	f.svc = NewService(fake, Options{
		ChainID: sepolia,
		Token:   token,
		Pool:    pool,
		History: l,
		Logger:  zerolog.Nop(),
		OnState: func(s State) {
			f.mu.Lock()
			f.states = append(f.states, s)
			f.mu.Unlock()
		},
	})
	f.svc.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	return f
}

func connected(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	_, err := f.svc.Connect(context.Background())
	require.NoError(t, err)
	return f
}

func TestConnect(t *testing.T) {
	f := newFixture(t)

	account, err := f.svc.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, user, account)

	got, ok := f.svc.Account()
	assert.True(t, ok)
	assert.Equal(t, user, got)

	f.svc.Disconnect()
	_, ok = f.svc.Account()
	assert.False(t, ok)
}

func TestConnect_WrongNetwork(t *testing.T) {
	f := newFixture(t)
	f.fake.ChainIDValue = 1

	_, err := f.svc.Connect(context.Background())
	assert.ErrorIs(t, err, ErrWrongNetwork)
	_, ok := f.svc.Account()
	assert.False(t, ok)
}

func TestConnect_Rejected(t *testing.T) {
	f := newFixture(t)
	f.fake.Account = common.Address{}

	_, err := f.svc.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.Equal(t, OutcomeCancelled, Classify(err))
}

func TestReconnect(t *testing.T) {
	f := newFixture(t)

	account, ok := f.svc.Reconnect(context.Background())
	require.True(t, ok)
	assert.Equal(t, user, account)
	assert.Equal(t, eth("10"), f.svc.CachedBalances().Native)
}

func TestReconnect_SwallowsFailures(t *testing.T) {
	t.Run("no accounts", func(t *testing.T) {
		f := newFixture(t)
		f.fake.Account = common.Address{}
		_, ok := f.svc.Reconnect(context.Background())
		assert.False(t, ok)
	})
	t.Run("wrong network", func(t *testing.T) {
		f := newFixture(t)
		f.fake.ChainIDValue = 5
		_, ok := f.svc.Reconnect(context.Background())
		assert.False(t, ok)
	})
	t.Run("read failure", func(t *testing.T) {
		f := newFixture(t)
		f.fake.ReadErr = errors.New("node unreachable")
		_, ok := f.svc.Reconnect(context.Background())
		assert.False(t, ok)
		_, connected := f.svc.Account()
		assert.False(t, connected)
	})
}

func TestReserves(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Reserves(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, eth("100"), r.Native)
	assert.Equal(t, eth("400000"), r.Token)

	f.fake.ReadErr = errors.New("timeout")
	_, err = f.svc.Reserves(context.Background(), nil)
	var cqe *wallet.ChainQueryError
	assert.ErrorAs(t, err, &cqe)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q := f.svc.Quote(ctx, "1", types.NativeToToken)
	want := amm.Compute(eth("1"), types.NativeToToken, amm.Reserves{Native: eth("100"), Token: eth("400000")})
	assert.Equal(t, want.Output, q.Output)
	assert.Equal(t, want.PriceImpact, q.PriceImpact)

	assert.Zero(t, f.svc.Quote(ctx, "abc", types.NativeToToken).Output.Sign())
	assert.Zero(t, f.svc.Quote(ctx, "", types.NativeToToken).Output.Sign())

	f.fake.ReadErr = errors.New("rpc down")
	assert.Zero(t, f.svc.Quote(ctx, "1", types.NativeToToken).Output.Sign())
}

func TestMaxSwapAmount(t *testing.T) {
	f := connected(t)
	ctx := context.Background()

	v, err := f.svc.MaxSwapAmount(ctx, types.NativeToToken)
	require.NoError(t, err)
	assert.Equal(t, eth("9.99"), v)

	v, err = f.svc.MaxSwapAmount(ctx, types.TokenToNative)
	require.NoError(t, err)
	assert.Equal(t, eth("1000"), v)

	f.fake.SetNative(user, eth("0.005"))
	v, err = f.svc.MaxSwapAmount(ctx, types.NativeToToken)
	require.NoError(t, err)
	assert.Zero(t, v.Sign())
}

func TestAddTokenToWallet(t *testing.T) {
	f := connected(t)

	added, err := f.svc.AddTokenToWallet(context.Background())
	require.NoError(t, err)
	assert.True(t, added)
	require.Len(t, f.fake.Watched, 1)
	assert.Equal(t, "SHINE", f.fake.Watched[0].Symbol)
	assert.Equal(t, uint8(18), f.fake.Watched[0].Decimals)
	assert.Equal(t, token, f.fake.Watched[0].Address)
}

func TestEnsureAllowance_Sufficient(t *testing.T) {
	f := connected(t)
	f.fake.SetAllowance(user, pool, eth("100"))

	hash, approved, err := f.svc.EnsureAllowance(context.Background(), user, pool, eth("50"))
	require.NoError(t, err)
	assert.False(t, approved)
	assert.Equal(t, common.Hash{}, hash)
	assert.Zero(t, f.fake.SentCount())
}

func TestEnsureAllowance_ApprovesDouble(t *testing.T) {
	f := connected(t)

	hash, approved, err := f.svc.EnsureAllowance(context.Background(), user, pool, eth("50"))
	require.NoError(t, err)
	assert.True(t, approved)
	assert.NotEqual(t, common.Hash{}, hash)
	assert.Equal(t, 1, f.fake.SentCount())
	assert.Equal(t, token, f.fake.Sent[0].To)
	assert.Equal(t, eth("100"), f.fake.AllowanceOf(user, pool))
}

func TestEnsureAllowance_Failures(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		f := connected(t)
		f.fake.SendErr = func(wallet.TxRequest) error { return &wallet.RejectedError{} }

		_, _, err := f.svc.EnsureAllowance(context.Background(), user, pool, eth("50"))
		assert.ErrorIs(t, err, ErrApprovalFailed)
		assert.ErrorIs(t, err, ErrUserRejected)
		assert.Equal(t, OutcomeCancelled, Classify(err))
	})
	t.Run("reverted", func(t *testing.T) {
		f := connected(t)
		f.fake.Revert = func(wallet.TxRequest) bool { return true }

		_, approved, err := f.svc.EnsureAllowance(context.Background(), user, pool, eth("50"))
		assert.True(t, approved)
		assert.ErrorIs(t, err, ErrApprovalFailed)
		assert.Equal(t, OutcomeFailed, Classify(err))
	})
}

func TestEnsureAllowance_WrongNetwork(t *testing.T) {
	f := connected(t)
	f.fake.Calls = 0
	f.fake.ChainIDValue = 1

	_, approved, err := f.svc.EnsureAllowance(context.Background(), user, pool, eth("50"))
	assert.ErrorIs(t, err, ErrWrongNetwork)
	assert.False(t, approved)
	assert.Zero(t, f.fake.Calls)
	assert.Zero(t, f.fake.SentCount())
}

func TestExecute_NativeToToken(t *testing.T) {
	f := connected(t)

	res, err := f.svc.Execute(context.Background(), "1", types.NativeToToken)
	require.NoError(t, err)

	out := amm.AmountOut(eth("1"), eth("100"), eth("400000"))
	assert.Equal(t, []State{StateSubmitting, StateAwaitingConfirmation, StateSettled}, f.seen())
	assert.Equal(t, StateSettled, f.svc.State())

	// entered amount as value, bare selector: no minimum output is sent
	require.Equal(t, 1, f.fake.SentCount())
	sent := f.fake.Sent[0]
	assert.Equal(t, pool, sent.To)
	assert.Equal(t, eth("1"), sent.Value)
	assert.Equal(t, contracts.PoolABI.Methods[contracts.MethodSwapETHForShine].ID, sent.Data)

	assert.Equal(t, types.SwapRecord{
		Hash:       res.Hash.Hex(),
		Status:     types.StatusSuccess,
		FromToken:  "ETH",
		ToToken:    "SHINE",
		FromAmount: "1",
		ToAmount:   amount.Format(out),
		Timestamp:  1_700_000_000_000,
	}, res.Record)
	assert.Nil(t, res.ApprovalHash)

	assert.Equal(t, eth("9"), res.Balances.Native)
	assert.Equal(t, new(big.Int).Add(eth("1000"), out), res.Balances.Token)

	records := f.log.List()
	require.Len(t, records, 1)
	assert.Equal(t, res.Record, records[0])
}

func TestExecute_TokenToNativeApprovesFirst(t *testing.T) {
	f := connected(t)

	res, err := f.svc.Execute(context.Background(), "100", types.TokenToNative)
	require.NoError(t, err)

	assert.Equal(t, []State{
		StateSubmitting,
		StateAwaitingApproval,
		StateSubmitting,
		StateAwaitingConfirmation,
		StateSettled,
	}, f.seen())

	require.Equal(t, 2, f.fake.SentCount())
	assert.Equal(t, token, f.fake.Sent[0].To)
	assert.Equal(t, pool, f.fake.Sent[1].To)
	require.NotNil(t, res.ApprovalHash)

	// approved 200, swap spent 100
	assert.Equal(t, eth("100"), f.fake.AllowanceOf(user, pool))

	out := amm.AmountOut(eth("100"), eth("400000"), eth("100"))
	assert.Equal(t, amount.Format(out), res.Record.ToAmount)
	assert.Equal(t, "SHINE", res.Record.FromToken)
	assert.Equal(t, eth("900"), res.Balances.Token)
}

func TestExecute_TokenToNativeSkipsApproval(t *testing.T) {
	f := connected(t)
	f.fake.SetAllowance(user, pool, eth("500"))

	_, err := f.svc.Execute(context.Background(), "100", types.TokenToNative)
	require.NoError(t, err)
	assert.Equal(t, 1, f.fake.SentCount())
	assert.NotContains(t, f.seen(), StateAwaitingApproval)
}

func TestExecute_UserRejected(t *testing.T) {
	rejections := map[string]error{
		"code 4001":   &wallet.RejectedError{},
		"denied text": errors.New("MetaMask Tx Signature: User denied transaction signature."),
	}
	for name, rejection := range rejections {
		t.Run(name, func(t *testing.T) {
			f := connected(t)
			before, err := f.svc.Balances(context.Background())
			require.NoError(t, err)

			f.fake.SendErr = func(wallet.TxRequest) error { return rejection }
			f.fake.SetNative(user, eth("3"))

			_, err = f.svc.Execute(context.Background(), "1", types.NativeToToken)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUserRejected)
			assert.NotErrorIs(t, err, ErrExecutionReverted)
			assert.Equal(t, OutcomeCancelled, Classify(err))
			assert.Equal(t, StateFailed, f.svc.State())

			assert.Equal(t, before, f.svc.CachedBalances())
			assert.Zero(t, f.log.Count())
		})
	}
}

func TestExecute_Reverted(t *testing.T) {
	f := connected(t)
	before, err := f.svc.Balances(context.Background())
	require.NoError(t, err)
	f.fake.Revert = func(wallet.TxRequest) bool { return true }

	_, err = f.svc.Execute(context.Background(), "1", types.NativeToToken)
	assert.ErrorIs(t, err, ErrExecutionReverted)
	assert.Equal(t, OutcomeFailed, Classify(err))
	assert.Equal(t, []State{StateSubmitting, StateAwaitingConfirmation, StateFailed}, f.seen())

	assert.Equal(t, before, f.svc.CachedBalances())
	assert.Zero(t, f.log.Count())
	assert.Equal(t, 1, f.fake.SentCount())
}

func TestExecute_SubmitFailure(t *testing.T) {
	f := connected(t)
	f.fake.SendErr = func(wallet.TxRequest) error { return errors.New("insufficient funds for gas") }

	_, err := f.svc.Execute(context.Background(), "1", types.NativeToToken)
	assert.ErrorIs(t, err, ErrExecutionReverted)
	assert.Equal(t, OutcomeFailed, Classify(err))
}

func TestExecute_Preconditions(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Execute(context.Background(), "1", types.NativeToToken)
		assert.ErrorIs(t, err, ErrWalletNotConnected)
	})
	t.Run("wrong network before any read", func(t *testing.T) {
		f := connected(t)
		f.fake.ChainIDValue = 1

		_, err := f.svc.Execute(context.Background(), "100", types.TokenToNative)
		assert.ErrorIs(t, err, ErrWrongNetwork)
		assert.Zero(t, f.fake.Calls)
		assert.Zero(t, f.fake.SentCount())
		assert.Empty(t, f.seen())
	})
	for _, in := range []string{"abc", "1.2.3", "0", "", "0.000"} {
		t.Run("invalid "+in, func(t *testing.T) {
			f := connected(t)
			_, err := f.svc.Execute(context.Background(), in, types.NativeToToken)
			assert.ErrorIs(t, err, amount.ErrInvalidAmount)
			assert.Zero(t, f.fake.SentCount())
		})
	}
}

func TestExecute_OneSwapAtATime(t *testing.T) {
	f := connected(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.fake.SendErr = func(wallet.TxRequest) error {
		entered <- struct{}{}
		<-release
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Execute(context.Background(), "1", types.NativeToToken)
		done <- err
	}()

	<-entered
	_, err := f.svc.Execute(context.Background(), "1", types.NativeToToken)
	assert.ErrorIs(t, err, ErrSwapInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.fake.SentCount())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSettled},
		{"sentinel", ErrUserRejected, OutcomeCancelled},
		{"code", &wallet.RejectedError{Message: "nope"}, OutcomeCancelled},
		{"action rejected", errors.New("ACTION_REJECTED"), OutcomeCancelled},
		{"cancelled text", errors.New("request cancelled"), OutcomeCancelled},
		{"revert", ErrExecutionReverted, OutcomeFailed},
		{"generic", errors.New("execution reverted: K"), OutcomeFailed},
		{"query", &wallet.ChainQueryError{Op: "x", Err: errors.New("eof")}, OutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDebouncer_RunsLastOnly(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var mu sync.Mutex
	var ran []int
	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			mu.Lock()
			ran = append(ran, i)
			mu.Unlock()
		})
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{4}, ran)
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	called := make(chan struct{}, 1)
	d.Trigger(func() { called <- struct{}{} })
	d.Stop()

	select {
	case <-called:
		t.Fatal("stopped call ran")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDebouncer_FlushRunsPendingNow(t *testing.T) {
	d := NewDebouncer(time.Hour)

	var got []string
	d.Trigger(func() { got = append(got, "first") })
	d.Trigger(func() { got = append(got, "second") })
	d.Flush()

	assert.Equal(t, []string{"second"}, got)

	d.Flush()
	assert.Equal(t, []string{"second"}, got)
}
