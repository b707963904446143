package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TxRequest is an unsigned call the wallet is asked to sign and broadcast
type TxRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Asset describes a token for wallet_watchAsset style registration
type Asset struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
	Image    string
}

// Provider is everything shine-swap needs from a wallet and its node.
// Implementations must not retry submissions on their own.
type Provider interface {
	// RequestAccounts asks the wallet to expose its accounts, prompting if needed
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts returns already-authorised accounts without prompting
	Accounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (*big.Int, error)

	BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)

	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
	// WaitMined blocks until the transaction has a receipt. There is no
	// timeout; only ctx cancellation ends the wait early.
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	WatchAsset(ctx context.Context, asset Asset) (bool, error)
}
