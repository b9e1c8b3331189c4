package deposit

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"

	"xchain-dex/config"
)

const (
	lamportDecimals = 9
	signatureFee    = uint64(5000) // lamports per signature
)

// SolanaDepositor sends native SOL deposits
type SolanaDepositor struct {
	config     config.SolanaConfig
	client     *rpc.Client
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

// NewSolanaDepositor creates a new Solana depositor
func NewSolanaDepositor(cfg config.SolanaConfig) (*SolanaDepositor, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for Solana")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for Solana")
	}

	// Base58 encoded
	privateKey, err := solana.PrivateKeyFromBase58(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &SolanaDepositor{
		config:     cfg,
		client:     rpc.New(cfg.RPCUrl),
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
	}, nil
}

// SendDeposit sends amount (in SOL) to address and returns the transaction signature
func (s *SolanaDepositor) SendDeposit(ctx context.Context, address string, amount string) (string, error) {
	recipient, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}

	value, err := toBaseUnits(amount, lamportDecimals)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}
	if !value.IsUint64() {
		return "", fmt.Errorf("amount %s is too large", amount)
	}
	lamports := value.Uint64()

	commitment := s.config.CommitmentLevel()

	balance, err := s.client.GetBalance(ctx, s.publicKey, commitment)
	if err != nil {
		return "", fmt.Errorf("failed to get balance: %w", err)
	}

	required := lamports + signatureFee
	if balance.Value < required {
		return "", fmt.Errorf("insufficient balance: have %d lamports, need %d lamports (including fees)", balance.Value, required)
	}

	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	instruction := system.NewTransferInstruction(
		lamports,
		s.publicKey,
		recipient,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(s.publicKey),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.publicKey) {
			return &s.privateKey
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       s.config.SkipPreflight,
		PreflightCommitment: commitment,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig.String(), nil
}

// Close is a no-op; the Solana RPC client holds no connection
func (s *SolanaDepositor) Close() {}
