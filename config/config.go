package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	JWTToken          string            `mapstructure:"jwt_token"`
	BaseURL           string            `mapstructure:"base_url"`
	LogLevel          string            `mapstructure:"log_level"`
	HistoryPath       string            `mapstructure:"history_path"`
	DefaultFromChain  string            `mapstructure:"default_from_chain"`
	DefaultToChain    string            `mapstructure:"default_to_chain"`
	RefundAddress     string            `mapstructure:"refund_address"`
	ValidateAddresses bool              `mapstructure:"validate_addresses"`
	Wallet            WalletConfig      `mapstructure:"wallet"`
	AutoDeposit       AutoDepositConfig `mapstructure:"auto_deposit"`
}

// WalletConfig selects and configures the wallet used to sign deposits
type WalletConfig struct {
	Kind    string       `mapstructure:"kind"` // evm, solana or address
	Address string       `mapstructure:"address"`
	EVM     EVMConfig    `mapstructure:"evm"`
	Solana  SolanaConfig `mapstructure:"solana"`
}

// EVMConfig configures an EVM account
type EVMConfig struct {
	RPCUrl     string `mapstructure:"rpc_url"`
	PrivateKey string `mapstructure:"private_key"`
	ChainID    int64  `mapstructure:"chain_id"`
	GasLimit   uint64 `mapstructure:"gas_limit"` // 0 estimates
	GasPrice   int64  `mapstructure:"gas_price"` // 0 asks the node
}

// SolanaConfig configures a Solana account
type SolanaConfig struct {
	RPCUrl        string `mapstructure:"rpc_url"`
	PrivateKey    string `mapstructure:"private_key"` // Base58
	Commitment    string `mapstructure:"commitment"`
	SkipPreflight bool   `mapstructure:"skip_preflight"`
}

// CommitmentLevel maps the configured commitment to the RPC type, defaulting to confirmed
func (c SolanaConfig) CommitmentLevel() rpc.CommitmentType {
	switch strings.ToLower(c.Commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

// AutoDepositConfig controls whether the executor sends the deposit itself
type AutoDepositConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	AutoConfirm bool `mapstructure:"auto_confirm"`
}

const (
	WalletEVM     = "evm"
	WalletSolana  = "solana"
	WalletAddress = "address"
)

var defaults = map[string]interface{}{
	"jwt_token":                    "",
	"base_url":                     "https://1click.chaindefuser.com",
	"log_level":                    "info",
	"history_path":                 "",
	"default_from_chain":           "ethereum",
	"default_to_chain":             "tezos",
	"refund_address":               "",
	"validate_addresses":           true,
	"wallet.kind":                  WalletAddress,
	"wallet.address":               "",
	"wallet.evm.rpc_url":           "",
	"wallet.evm.private_key":       "",
	"wallet.evm.chain_id":          1,
	"wallet.evm.gas_limit":         0,
	"wallet.evm.gas_price":         0,
	"wallet.solana.rpc_url":        "https://api.mainnet-beta.solana.com",
	"wallet.solana.private_key":    "",
	"wallet.solana.commitment":     "confirmed",
	"wallet.solana.skip_preflight": false,
	"auto_deposit.enabled":         false,
	"auto_deposit.auto_confirm":    false,
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".xchain-dex")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Set default values so every key can be overridden from the environment
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables, e.g. XCHAIN_DEX_WALLET_EVM_RPC_URL
	v.SetEnvPrefix("XCHAIN_DEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that do not depend on the command being run
func (c *Config) Validate() error {
	switch strings.ToLower(c.Wallet.Kind) {
	case WalletEVM:
		if c.Wallet.EVM.RPCUrl == "" || c.Wallet.EVM.PrivateKey == "" {
			return fmt.Errorf("wallet.evm.rpc_url and wallet.evm.private_key are required for an evm wallet")
		}
	case WalletSolana:
		if c.Wallet.Solana.RPCUrl == "" || c.Wallet.Solana.PrivateKey == "" {
			return fmt.Errorf("wallet.solana.rpc_url and wallet.solana.private_key are required for a solana wallet")
		}
	case WalletAddress, "":
	default:
		return fmt.Errorf("unknown wallet kind '%s' (expected evm, solana or address)", c.Wallet.Kind)
	}
	return nil
}

// RequireAPIToken returns an error when the 1Click JWT token is missing
func (c *Config) RequireAPIToken() error {
	if c.JWTToken == "" {
		return fmt.Errorf("JWT token not found. Please set XCHAIN_DEX_JWT_TOKEN environment variable or create a .xchain-dex.yaml config file")
	}
	return nil
}
