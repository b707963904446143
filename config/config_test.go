package config

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseViper() *viper.Viper {
	v := viper.New()
	v.Set("rpc_url", "http://localhost:8545")
	v.Set("token_address", DefaultTokenAddress)
	v.Set("pool_address", DefaultPoolAddress)
	v.Set("chain_id", SepoliaChainID)
	v.Set("history_file", "/tmp/txs.json")
	v.Set("explorer_url", DefaultExplorerURL)
	return v
}

func TestFromViper(t *testing.T) {
	v := baseViper()
	v.Set("gas_limit", 250000)
	v.Set("quote_debounce_ms", 150)

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, int64(SepoliaChainID), cfg.ChainID)
	assert.Equal(t, common.HexToAddress(DefaultPoolAddress), cfg.Pool)
	require.NotNil(t, cfg.GasLimit)
	assert.Equal(t, uint64(250000), *cfg.GasLimit)
	assert.Nil(t, cfg.GasPrice)
	assert.Equal(t, 150*time.Millisecond, cfg.QuoteDebounce)
	assert.Error(t, cfg.RequireSigner())
	assert.Equal(t, DefaultExplorerURL+"/tx/0xabc", cfg.TxURL("0xabc"))
}

func TestFromViper_DefaultDebounce(t *testing.T) {
	cfg, err := fromViper(baseViper())
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, cfg.QuoteDebounce)
}

func TestFromViper_InvalidAddress(t *testing.T) {
	v := baseViper()
	v.Set("pool_address", "not-an-address")

	_, err := fromViper(v)
	assert.ErrorContains(t, err, "pool_address")
}
