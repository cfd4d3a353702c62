package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// AggregatorBaseURL is the price-aggregator API root.
	AggregatorBaseURL string
	// FeeRecipient and FeeBps configure an optional affiliate fee on quotes.
	FeeRecipient string
	FeeBps       int
	// PrivateKey signs approval and swap transactions. Only required for
	// commands that submit transactions.
	PrivateKey string
	// DefaultSlippageBps is used when the user sets manual slippage without
	// a value. Zero means auto slippage.
	DefaultSlippageBps int
	// RPCOverrides maps chain IDs to RPC URLs, replacing the registry
	// defaults.
	RPCOverrides map[int64]string
	// UserTokensFile persists user-imported tokens between runs.
	UserTokensFile string
	// SiteTokensFile optionally replaces the built-in site token list.
	SiteTokensFile string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".chainswap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("aggregator_base_url", "https://api.0x.org/swap/v1")
	viper.SetDefault("user_tokens_file", defaultUserTokensFile())

	// Read from environment variables
	viper.SetEnvPrefix("CHAINSWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		AggregatorBaseURL:  viper.GetString("aggregator_base_url"),
		FeeRecipient:       viper.GetString("fee_recipient"),
		FeeBps:             viper.GetInt("fee_bps"),
		PrivateKey:         viper.GetString("private_key"),
		DefaultSlippageBps: viper.GetInt("default_slippage_bps"),
		UserTokensFile:     viper.GetString("user_tokens_file"),
		SiteTokensFile:     viper.GetString("site_tokens_file"),
		RPCOverrides:       make(map[int64]string),
	}

	for key, rpcURL := range viper.GetStringMapString("rpc_urls") {
		chainID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain ID %q in rpc_urls", key)
		}
		cfg.RPCOverrides[chainID] = rpcURL
	}

	if cfg.AggregatorBaseURL == "" {
		return nil, fmt.Errorf("aggregator base URL not configured. Set CHAINSWAP_AGGREGATOR_BASE_URL or create a .chainswap.yaml config file")
	}

	globalConfig = cfg
	return cfg, nil
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

func defaultUserTokensFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chainswap-tokens.json"
	}
	return home + "/.chainswap-tokens.json"
}
