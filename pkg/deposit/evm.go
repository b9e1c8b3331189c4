package deposit

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"xchain-dex/config"
)

const (
	etherDecimals     = 18
	nativeTransferGas = uint64(21000)
	gasEstimateBuffer = 120 // percent
)

// EVMDepositor sends native-asset deposits on an EVM chain
type EVMDepositor struct {
	config     config.EVMConfig
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	from       common.Address
}

// NewEVMDepositor creates a new EVM depositor
func NewEVMDepositor(cfg config.EVMConfig) (*EVMDepositor, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for EVM wallet")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for EVM wallet")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	client, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	return &EVMDepositor{
		config:     cfg,
		client:     client,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// SendDeposit sends amount (in ether units) to address and returns the transaction hash
func (e *EVMDepositor) SendDeposit(ctx context.Context, address string, amount string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid recipient address: %s", address)
	}
	to := common.HexToAddress(address)

	value, err := toBaseUnits(amount, etherDecimals)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := e.getGasPrice(ctx)
	if err != nil {
		return "", err
	}

	gasLimit := e.getGasLimit(ctx, to, value)

	balance, err := e.client.BalanceAt(ctx, e.from, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get balance: %w", err)
	}

	required := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit))
	required.Add(required, value)
	if balance.Cmp(required) < 0 {
		return "", fmt.Errorf("insufficient balance: have %s wei, need %s wei (including gas)", balance.String(), required.String())
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, nil)

	signer := types.LatestSignerForChainID(big.NewInt(e.config.ChainID))
	signedTx, err := types.SignTx(tx, signer, e.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

// getGasPrice returns the configured gas price or asks the node
func (e *EVMDepositor) getGasPrice(ctx context.Context) (*big.Int, error) {
	if e.config.GasPrice > 0 {
		return big.NewInt(e.config.GasPrice), nil
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	return gasPrice, nil
}

// getGasLimit returns the configured gas limit, an estimate, or the plain transfer cost
func (e *EVMDepositor) getGasLimit(ctx context.Context, to common.Address, value *big.Int) uint64 {
	if e.config.GasLimit > 0 {
		return e.config.GasLimit
	}

	estimated, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  e.from,
		To:    &to,
		Value: value,
	})
	if err != nil || estimated <= nativeTransferGas {
		return nativeTransferGas
	}

	return estimated * gasEstimateBuffer / 100
}

// Close closes the client connection
func (e *EVMDepositor) Close() {
	if e.client != nil {
		e.client.Close()
	}
}
