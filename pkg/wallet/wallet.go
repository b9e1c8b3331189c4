package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"xchain-dex/config"
	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/types"
)

// Provider connects a wallet and reports the session
type Provider interface {
	Connect(ctx context.Context) (types.WalletSession, error)
}

// New returns the provider selected by cfg.Kind. chain is the chain the wallet
// funds transfers from.
func New(cfg config.WalletConfig, chain chains.Descriptor, logger zerolog.Logger) (Provider, error) {
	logger = logger.With().Str("component", "wallet").Str("kind", cfg.Kind).Logger()

	switch strings.ToLower(cfg.Kind) {
	case config.WalletEVM:
		if chain.Family != chains.FamilyEVM {
			return nil, fmt.Errorf("an evm wallet cannot fund transfers from %s", chain.Name)
		}
		return &EVMWallet{config: cfg.EVM, chain: chain, log: logger}, nil
	case config.WalletSolana:
		if chain.Family != chains.FamilySolana {
			return nil, fmt.Errorf("a solana wallet cannot fund transfers from %s", chain.Name)
		}
		return &SolanaWallet{config: cfg.Solana, chain: chain, log: logger}, nil
	case config.WalletAddress, "":
		return &AddressWallet{address: cfg.Address, chain: chain}, nil
	default:
		return nil, fmt.Errorf("unknown wallet kind '%s'", cfg.Kind)
	}
}

// AddressWallet is a watch-only wallet: it proves nothing beyond a well-formed address
type AddressWallet struct {
	address string
	chain   chains.Descriptor
}

// NewAddressWallet creates a watch-only wallet for address on chain
func NewAddressWallet(address string, chain chains.Descriptor) *AddressWallet {
	return &AddressWallet{address: address, chain: chain}
}

// Connect validates the address against the chain's rules
func (w *AddressWallet) Connect(ctx context.Context) (types.WalletSession, error) {
	if err := ctx.Err(); err != nil {
		return types.WalletSession{}, err
	}

	address := strings.TrimSpace(w.address)
	if address == "" {
		return types.WalletSession{}, fmt.Errorf("wallet address not configured")
	}
	if err := chains.ValidateAddress(w.chain.Family, address); err != nil {
		return types.WalletSession{}, fmt.Errorf("invalid %s wallet address: %w", w.chain.Name, err)
	}

	return types.WalletSession{
		Chain:   string(w.chain.ID),
		Address: address,
	}, nil
}
