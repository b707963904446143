package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	SepoliaChainID = 11155111

	DefaultRPCURL       = "https://ethereum-sepolia.publicnode.com"
	DefaultTokenAddress = "0x7C5a0C4fa68c47740Cd51Dd6dFad5E754d019c05"
	DefaultPoolAddress  = "0x476DaA7f3c23C7e46A526c20288CF9e74D08a564"
	DefaultHistoryFile  = ".shine-swap-txs.json"
	DefaultExplorerURL  = "https://sepolia.etherscan.io"
)

// Config holds the application configuration
type Config struct {
	RPCURL      string
	PrivateKey  string
	ChainID     int64
	Token       common.Address
	Pool        common.Address
	HistoryFile string
	ExplorerURL string
	LogLevel    string
	AutoConfirm bool

	// Optional transaction overrides; nil means ask the node
	GasLimit *uint64
	GasPrice *int64

	QuoteDebounce time.Duration
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".shine-swap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Set default values
	v.SetDefault("rpc_url", DefaultRPCURL)
	v.SetDefault("chain_id", SepoliaChainID)
	v.SetDefault("token_address", DefaultTokenAddress)
	v.SetDefault("pool_address", DefaultPoolAddress)
	v.SetDefault("explorer_url", DefaultExplorerURL)
	v.SetDefault("log_level", "warn")
	v.SetDefault("quote_debounce_ms", 300)

	// Read from environment variables
	v.SetEnvPrefix("SHINE_SWAP")
	v.AutomaticEnv()

	// Read config file (optional)
	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		RPCURL:        v.GetString("rpc_url"),
		PrivateKey:    v.GetString("private_key"),
		ChainID:       v.GetInt64("chain_id"),
		HistoryFile:   v.GetString("history_file"),
		ExplorerURL:   v.GetString("explorer_url"),
		LogLevel:      v.GetString("log_level"),
		AutoConfirm:   v.GetBool("auto_confirm"),
		QuoteDebounce: time.Duration(v.GetInt("quote_debounce_ms")) * time.Millisecond,
	}

	if v.IsSet("gas_limit") {
		gl := v.GetUint64("gas_limit")
		cfg.GasLimit = &gl
	}
	if v.IsSet("gas_price") {
		gp := v.GetInt64("gas_price")
		cfg.GasPrice = &gp
	}

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("RPC URL not configured. Set SHINE_SWAP_RPC_URL or rpc_url in .shine-swap.yaml")
	}

	for key, dst := range map[string]*common.Address{"token_address": &cfg.Token, "pool_address": &cfg.Pool} {
		raw := v.GetString(key)
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("invalid %s: %q", key, raw)
		}
		*dst = common.HexToAddress(raw)
	}

	if cfg.HistoryFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.HistoryFile = filepath.Join(home, DefaultHistoryFile)
	}

	if cfg.QuoteDebounce <= 0 {
		cfg.QuoteDebounce = 300 * time.Millisecond
	}

	globalConfig = cfg
	return cfg, nil
}

// RequireSigner checks that a private key is configured
func (c *Config) RequireSigner() error {
	if c.PrivateKey == "" {
		return fmt.Errorf("private key not found. Please set SHINE_SWAP_PRIVATE_KEY environment variable or private_key in .shine-swap.yaml")
	}
	return nil
}

// TxURL links a transaction on the block explorer
func (c *Config) TxURL(hash string) string {
	return c.ExplorerURL + "/tx/" + hash
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
