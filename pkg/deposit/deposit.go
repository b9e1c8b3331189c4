package deposit

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"xchain-dex/config"
	"xchain-dex/pkg/chains"
)

// Depositor sends a native-asset deposit on one chain family
type Depositor interface {
	SendDeposit(ctx context.Context, address string, amount string) (string, error)
	Close()
}

// Manager handles auto-deposit for the configured wallet
type Manager struct {
	config       config.AutoDepositConfig
	wallet       config.WalletConfig
	log          zerolog.Logger
	newDepositor func(family chains.Family) (Depositor, error)
}

// NewManager creates a new deposit manager
func NewManager(cfg config.AutoDepositConfig, wallet config.WalletConfig, logger zerolog.Logger) *Manager {
	m := &Manager{
		config: cfg,
		wallet: wallet,
		log:    logger.With().Str("component", "deposit").Logger(),
	}
	m.newDepositor = m.depositorFor
	return m
}

// IsEnabled returns whether auto-deposit is enabled globally
func (m *Manager) IsEnabled() bool {
	return m.config.Enabled
}

// IsEnabledForChain returns whether the configured wallet can fund deposits on chain
func (m *Manager) IsEnabledForChain(chain chains.Descriptor) bool {
	if !m.config.Enabled {
		return false
	}
	family, ok := walletFamily(m.wallet.Kind)
	return ok && family == chain.Family
}

// SendDeposit sends amount of the chain's native asset to address
func (m *Manager) SendDeposit(ctx context.Context, chain chains.Descriptor, address, amount string) (string, error) {
	if !m.IsEnabled() {
		return "", fmt.Errorf("auto-deposit is not enabled in configuration")
	}

	if !m.IsEnabledForChain(chain) {
		return "", fmt.Errorf("auto-deposit is not enabled for chain: %s", chain.Name)
	}

	depositor, err := m.newDepositor(chain.Family)
	if err != nil {
		return "", err
	}
	defer depositor.Close()

	m.log.Info().
		Str("chain", string(chain.ID)).
		Str("address", address).
		Str("amount", amount).
		Msg("Sending deposit")

	return depositor.SendDeposit(ctx, address, amount)
}

// SupportedFamilies returns the chain families the configured wallet can deposit on
func (m *Manager) SupportedFamilies() []chains.Family {
	if !m.config.Enabled {
		return nil
	}
	if family, ok := walletFamily(m.wallet.Kind); ok {
		return []chains.Family{family}
	}
	return nil
}

func (m *Manager) depositorFor(family chains.Family) (Depositor, error) {
	switch family {
	case chains.FamilyEVM:
		return NewEVMDepositor(m.wallet.EVM)
	case chains.FamilySolana:
		return NewSolanaDepositor(m.wallet.Solana)
	default:
		return nil, fmt.Errorf("auto-deposit not supported for chain family: %s", family)
	}
}

// walletFamily maps a configured wallet kind to the chain family it signs for
func walletFamily(kind string) (chains.Family, bool) {
	switch strings.ToLower(kind) {
	case config.WalletEVM:
		return chains.FamilyEVM, true
	case config.WalletSolana:
		return chains.FamilySolana, true
	default:
		return "", false
	}
}

// toBaseUnits converts a human-readable amount into base units, truncating extra precision
func toBaseUnits(amount string, decimals int32) (*big.Int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}
	if !value.IsPositive() {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	units := value.Shift(decimals).Truncate(0)
	if units.IsZero() {
		return nil, fmt.Errorf("amount %s is below the smallest unit", amount)
	}

	return units.BigInt(), nil
}
