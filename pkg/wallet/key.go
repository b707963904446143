package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

const DefaultPollInterval = 2 * time.Second

// KeyProvider is a Provider backed by a JSON-RPC node and a local private key
type KeyProvider struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
	log        zerolog.Logger

	// Optional overrides; nil means ask the node
	GasLimit *uint64
	GasPrice *big.Int

	// Confirm, when set, is asked before every signature. Returning false
	// declines the request the way a wallet popup would.
	Confirm func(TxRequest) bool

	PollInterval time.Duration
}

// NewKeyProvider wraps an RPC client. privateKeyHex may be empty for a
// read-only provider that exposes no accounts.
func NewKeyProvider(client *ethclient.Client, privateKeyHex string, log zerolog.Logger) (*KeyProvider, error) {
	p := &KeyProvider{
		client:       client,
		log:          log,
		PollInterval: DefaultPollInterval,
	}

	if privateKeyHex != "" {
		// Parse private key
		privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		p.privateKey = privateKey
		p.address = crypto.PubkeyToAddress(privateKey.PublicKey)
	}

	return p, nil
}

// Dial connects to the RPC endpoint and returns a KeyProvider
func Dial(ctx context.Context, rpcURL, privateKeyHex string, log zerolog.Logger) (*KeyProvider, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	p, err := NewKeyProvider(client, privateKeyHex, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	return p, nil
}

func (p *KeyProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if p.privateKey == nil {
		return nil, errors.New("no signing key configured")
	}
	return []common.Address{p.address}, nil
}

func (p *KeyProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	if p.privateKey == nil {
		return nil, nil
	}
	return []common.Address{p.address}, nil
}

func (p *KeyProvider) ChainID(ctx context.Context) (*big.Int, error) {
	if p.chainID != nil {
		return new(big.Int).Set(p.chainID), nil
	}
	id, err := p.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	p.chainID = id
	return new(big.Int).Set(id), nil
}

func (p *KeyProvider) BalanceAt(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error) {
	return p.client.BalanceAt(ctx, account, block)
}

func (p *KeyProvider) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return p.client.HeaderByNumber(ctx, number)
}

func (p *KeyProvider) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	return p.client.CallContract(ctx, msg, block)
}

func (p *KeyProvider) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return p.client.FilterLogs(ctx, q)
}

// SendTransaction signs req with the local key and broadcasts it once
func (p *KeyProvider) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	if p.privateKey == nil {
		return common.Hash{}, errors.New("no signing key configured")
	}
	if req.From != (common.Address{}) && req.From != p.address {
		return common.Hash{}, fmt.Errorf("cannot sign for %s", req.From.Hex())
	}
	if p.Confirm != nil && !p.Confirm(req) {
		return common.Hash{}, &RejectedError{Message: "user rejected transaction"}
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := p.ChainID(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	// Get nonce
	nonce, err := p.client.PendingNonceAt(ctx, p.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := p.getGasPrice(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	gasLimit, err := p.getGasLimit(ctx, req, value)
	if err != nil {
		return common.Hash{}, err
	}

	tx := types.NewTransaction(nonce, req.To, value, gasLimit, gasPrice, req.Data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), p.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := p.client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	p.log.Debug().
		Str("hash", signedTx.Hash().Hex()).
		Str("to", req.To.Hex()).
		Str("value", value.String()).
		Uint64("nonce", nonce).
		Uint64("gas", gasLimit).
		Msg("transaction broadcast")

	return signedTx.Hash(), nil
}

// WaitMined polls for the receipt until it exists or ctx is done
func (p *KeyProvider) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	interval := p.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := p.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to get transaction receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Receipt looks a transaction up once. found is false while it is pending or
// unknown to the node.
func (p *KeyProvider) Receipt(ctx context.Context, hash common.Hash) (receipt *types.Receipt, found bool, err error) {
	receipt, err = p.client.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &ChainQueryError{Op: "receipt " + hash.Hex(), Err: err}
	}
	return receipt, true, nil
}

// WatchAsset has nothing to register for a raw key: the key already controls
// every token at its address. The request is acknowledged and logged.
func (p *KeyProvider) WatchAsset(ctx context.Context, asset Asset) (bool, error) {
	if p.privateKey == nil {
		return false, errors.New("no signing key configured")
	}
	p.log.Info().
		Str("token", asset.Address.Hex()).
		Str("symbol", asset.Symbol).
		Uint8("decimals", asset.Decimals).
		Msg("asset registered")
	return true, nil
}

// Close closes the client connection
func (p *KeyProvider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// getGasPrice returns the gas price to use for transactions
func (p *KeyProvider) getGasPrice(ctx context.Context) (*big.Int, error) {
	// Use configured gas price if available
	if p.GasPrice != nil {
		return new(big.Int).Set(p.GasPrice), nil
	}

	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return gasPrice, nil
}

func (p *KeyProvider) getGasLimit(ctx context.Context, req TxRequest, value *big.Int) (uint64, error) {
	if p.GasLimit != nil {
		return *p.GasLimit, nil
	}

	to := req.To
	msg := ethereum.CallMsg{
		From:  p.address,
		To:    &to,
		Value: value,
		Data:  req.Data,
	}
	// A failing estimate usually means the call would revert
	estimated, err := p.client.EstimateGas(ctx, msg)
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return estimated * 120 / 100, nil // Add 20% buffer
}
