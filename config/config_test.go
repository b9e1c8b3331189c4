package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://1click.chaindefuser.com", cfg.BaseURL)
	require.Equal(t, "ethereum", cfg.DefaultFromChain)
	require.Equal(t, "tezos", cfg.DefaultToChain)
	require.Equal(t, WalletAddress, cfg.Wallet.Kind)
	require.Equal(t, int64(1), cfg.Wallet.EVM.ChainID)
	require.True(t, cfg.ValidateAddresses)
	require.False(t, cfg.AutoDeposit.Enabled)
	require.Error(t, cfg.RequireAPIToken())
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("XCHAIN_DEX_JWT_TOKEN", "secret")
	t.Setenv("XCHAIN_DEX_WALLET_KIND", "evm")
	t.Setenv("XCHAIN_DEX_WALLET_EVM_RPC_URL", "http://localhost:8545")
	t.Setenv("XCHAIN_DEX_WALLET_EVM_PRIVATE_KEY", "0xabc")
	t.Setenv("XCHAIN_DEX_WALLET_EVM_CHAIN_ID", "11155111")
	t.Setenv("XCHAIN_DEX_AUTO_DEPOSIT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.RequireAPIToken())
	require.Equal(t, "secret", cfg.JWTToken)
	require.Equal(t, WalletEVM, cfg.Wallet.Kind)
	require.Equal(t, "http://localhost:8545", cfg.Wallet.EVM.RPCUrl)
	require.Equal(t, int64(11155111), cfg.Wallet.EVM.ChainID)
	require.True(t, cfg.AutoDeposit.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	home := isolate(t)
	content := `
jwt_token: from-file
default_from_chain: solana
wallet:
  kind: solana
  solana:
    private_key: key
    commitment: finalized
`
	require.NoError(t, os.WriteFile(filepath.Join(home, ".xchain-dex.yaml"), []byte(content), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.JWTToken)
	require.Equal(t, "solana", cfg.DefaultFromChain)
	require.Equal(t, WalletSolana, cfg.Wallet.Kind)
	require.Equal(t, "finalized", cfg.Wallet.Solana.Commitment)
	require.Equal(t, "https://api.mainnet-beta.solana.com", cfg.Wallet.Solana.RPCUrl)
}

func TestValidateWallet(t *testing.T) {
	tests := []struct {
		name    string
		wallet  WalletConfig
		wantErr bool
	}{
		{"address", WalletConfig{Kind: WalletAddress}, false},
		{"unset", WalletConfig{}, false},
		{"evm missing key", WalletConfig{Kind: WalletEVM, EVM: EVMConfig{RPCUrl: "http://node"}}, true},
		{"evm", WalletConfig{Kind: WalletEVM, EVM: EVMConfig{RPCUrl: "http://node", PrivateKey: "0x1"}}, false},
		{"solana missing rpc", WalletConfig{Kind: WalletSolana, Solana: SolanaConfig{PrivateKey: "k"}}, true},
		{"unknown", WalletConfig{Kind: "ledger"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Wallet: tt.wallet}
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCommitmentLevel(t *testing.T) {
	tests := map[string]rpc.CommitmentType{
		"":          rpc.CommitmentConfirmed,
		"confirmed": rpc.CommitmentConfirmed,
		"Finalized": rpc.CommitmentFinalized,
		"processed": rpc.CommitmentProcessed,
		"bogus":     rpc.CommitmentConfirmed,
	}
	for in, want := range tests {
		require.Equal(t, want, SolanaConfig{Commitment: in}.CommitmentLevel(), "commitment %q", in)
	}
}
