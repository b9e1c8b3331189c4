package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"xchain-dex/config"
	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/types"
)

// SolanaWallet connects to a Solana RPC node with a configured keypair
type SolanaWallet struct {
	config config.SolanaConfig
	chain  chains.Descriptor
	log    zerolog.Logger
}

// Connect derives the public key and reads the SOL balance
func (w *SolanaWallet) Connect(ctx context.Context) (types.WalletSession, error) {
	privateKey, err := solana.PrivateKeyFromBase58(w.config.PrivateKey)
	if err != nil {
		return types.WalletSession{}, fmt.Errorf("invalid private key: %w", err)
	}
	publicKey := privateKey.PublicKey()

	client := rpc.New(w.config.RPCUrl)

	balance, err := client.GetBalance(ctx, publicKey, w.config.CommitmentLevel())
	if err != nil {
		return types.WalletSession{}, fmt.Errorf("failed to get balance: %w", err)
	}

	session := types.WalletSession{
		Chain:   string(w.chain.ID),
		Address: publicKey.String(),
		Balance: formatUnits(new(big.Int).SetUint64(balance.Value), w.chain.Decimals),
	}

	w.log.Debug().
		Str("address", session.Address).
		Str("balance", session.Balance).
		Msg("Solana wallet connected")

	return session, nil
}
