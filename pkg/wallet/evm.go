package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"xchain-dex/config"
	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/types"
)

// EVMWallet connects to an EVM node with a configured private key
type EVMWallet struct {
	config config.EVMConfig
	chain  chains.Descriptor
	log    zerolog.Logger
}

// Connect derives the account address, checks the node's chain ID and reads the balance
func (w *EVMWallet) Connect(ctx context.Context) (types.WalletSession, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(w.config.PrivateKey, "0x"))
	if err != nil {
		return types.WalletSession{}, fmt.Errorf("invalid private key: %w", err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	client, err := ethclient.DialContext(ctx, w.config.RPCUrl)
	if err != nil {
		return types.WalletSession{}, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return types.WalletSession{}, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if w.config.ChainID != 0 && chainID.Cmp(big.NewInt(w.config.ChainID)) != 0 {
		return types.WalletSession{}, fmt.Errorf("RPC endpoint serves chain %s, expected %d", chainID.String(), w.config.ChainID)
	}

	balance, err := client.BalanceAt(ctx, address, nil)
	if err != nil {
		return types.WalletSession{}, fmt.Errorf("failed to get balance: %w", err)
	}

	session := types.WalletSession{
		Chain:   string(w.chain.ID),
		Address: address.Hex(),
		Balance: formatUnits(balance, w.chain.Decimals),
	}

	w.log.Debug().
		Str("address", session.Address).
		Str("chain_id", chainID.String()).
		Str("balance", session.Balance).
		Msg("EVM wallet connected")

	return session, nil
}

// formatUnits renders a base-unit amount in whole units
func formatUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}
