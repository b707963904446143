package cmd

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/fatih/color"

	"shine-swap/config"
	"shine-swap/pkg/amount"
	"shine-swap/pkg/contracts"
	"shine-swap/pkg/history"
	"shine-swap/pkg/logging"
	"shine-swap/pkg/swap"
	"shine-swap/pkg/wallet"
)

// session bundles what one command invocation needs
type session struct {
	cfg      *config.Config
	provider *wallet.KeyProvider
	svc      *swap.Service
	log      *history.Log
}

type sessionOptions struct {
	signer bool
	// skipConfirm signs approvals without asking
	skipConfirm bool
	onState     func(swap.State)
}

// openSession loads config, dials the node and connects the account. A
// read-only session reconnects silently and may end up without an account.
func openSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.LogLevel)

	if opts.signer {
		if err := cfg.RequireSigner(); err != nil {
			return nil, err
		}
	}

	provider, err := wallet.Dial(ctx, cfg.RPCURL, cfg.PrivateKey, logging.Component("wallet"))
	if err != nil {
		return nil, err
	}
	provider.GasLimit = cfg.GasLimit
	if cfg.GasPrice != nil {
		provider.GasPrice = big.NewInt(*cfg.GasPrice)
	}
	if !opts.skipConfirm && !cfg.AutoConfirm {
		provider.Confirm = confirmTx(cfg)
	}

	swapLog, err := history.OpenLog(cfg.HistoryFile)
	if err != nil {
		provider.Close()
		return nil, err
	}

	svc := swap.NewService(provider, swap.Options{
		ChainID: cfg.ChainID,
		Token:   cfg.Token,
		Pool:    cfg.Pool,
		History: swapLog,
		Logger:  logging.Component("swap"),
		OnState: opts.onState,
	})

	if opts.signer {
		if _, err := svc.Connect(ctx); err != nil {
			provider.Close()
			return nil, err
		}
	} else {
		svc.Reconnect(ctx)
	}

	return &session{cfg: cfg, provider: provider, svc: svc, log: swapLog}, nil
}

func (s *session) Close() {
	s.provider.Close()
}

// confirmTx asks before signing an approval. Swaps are confirmed once by
// the swap command itself.
func confirmTx(cfg *config.Config) func(wallet.TxRequest) bool {
	return func(req wallet.TxRequest) bool {
		if req.To != cfg.Token {
			return true
		}
		if len(req.Data) < 4 {
			return askYesNo("\nSign transaction to " + req.To.Hex() + "?")
		}
		method, err := contracts.ERC20ABI.MethodById(req.Data[:4])
		if err != nil || method.Name != "approve" {
			return askYesNo("\nSign transaction to " + req.To.Hex() + "?")
		}
		args, err := method.Inputs.Unpack(req.Data[4:])
		if err != nil {
			return false
		}
		allowance, _ := args[1].(*big.Int)
		color.Yellow("\nThe pool needs permission to spend your SHINE.")
		fmt.Printf("  Approve:  %s SHINE\n", amount.Format(allowance))
		fmt.Printf("  Spender:  %s\n", color.CyanString(cfg.Pool.Hex()))
		return askYesNo("\nSign approval?")
	}
}

func askYesNo(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print(prompt + " (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
