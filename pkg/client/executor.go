package client

import (
	"context"
	"fmt"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/rs/zerolog"

	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/types"
)

// DepositSender sends the source-chain deposit for an initiated transfer
type DepositSender interface {
	IsEnabledForChain(chain chains.Descriptor) bool
	SendDeposit(ctx context.Context, chain chains.Descriptor, address, amount string) (string, error)
}

// Executor initiates transfers through 1Click quotes
type Executor struct {
	client        *OneClickClient
	registry      *chains.Registry
	deposits      DepositSender
	refundAddress string
	log           zerolog.Logger
}

// NewExecutor creates a transfer executor. deposits may be nil, in which case
// the deposit is left to the user.
func NewExecutor(apiClient *OneClickClient, registry *chains.Registry, deposits DepositSender, refundAddress string, logger zerolog.Logger) *Executor {
	return &Executor{
		client:        apiClient,
		registry:      registry,
		deposits:      deposits,
		refundAddress: refundAddress,
		log:           logger.With().Str("component", "executor").Logger(),
	}
}

// Submit requests an execution quote and, when auto-deposit is available for
// the source chain, funds the deposit address
func (e *Executor) Submit(ctx context.Context, req types.TransferRequest) (types.Confirmation, error) {
	sourceChain, destChain, err := resolvePair(e.registry, chains.ID(req.SourceChain), chains.ID(req.DestinationChain))
	if err != nil {
		return types.Confirmation{}, err
	}

	refundTo := req.RefundAddress
	if refundTo == "" {
		refundTo = e.refundAddress
	}

	sourceAsset, destAsset, err := findAssets(ctx, e.client, sourceChain, destChain)
	if err != nil {
		return types.Confirmation{}, err
	}

	quote, err := e.client.GetQuote(ctx, QuoteRequest{
		SourceAsset: sourceAsset,
		DestAsset:   destAsset,
		Amount:      req.Amount,
		Recipient:   req.RecipientAddress,
		RefundTo:    refundTo,
	})
	if err != nil {
		return types.Confirmation{}, fmt.Errorf("failed to get quote: %w", err)
	}

	confirmation := confirmationFromQuote(quote)
	if confirmation.DepositAddress == "" {
		return types.Confirmation{}, fmt.Errorf("quote did not include a deposit address")
	}

	e.log.Info().
		Str("deposit_address", confirmation.DepositAddress).
		Str("amount_in", confirmation.AmountIn).
		Str("estimated_output", confirmation.EstimatedOutput).
		Msg("Transfer quote accepted")

	if e.deposits == nil || !e.deposits.IsEnabledForChain(sourceChain) {
		e.log.Info().
			Str("chain", sourceChain.Name).
			Msgf("Manual deposit required: send %s %s to %s", req.Amount, sourceChain.Symbol, confirmation.DepositAddress)
		return confirmation, nil
	}

	txHash, err := e.deposits.SendDeposit(ctx, sourceChain, confirmation.DepositAddress, req.Amount)
	if err != nil {
		return types.Confirmation{}, fmt.Errorf("auto-deposit failed: %w", err)
	}
	confirmation.DepositTxHash = txHash

	e.log.Info().Str("tx", txHash).Msg("Auto-deposit sent")

	// Speeds up processing; the transfer proceeds without it
	if err := e.client.SubmitDepositTx(ctx, confirmation.DepositAddress, txHash); err != nil {
		e.log.Warn().Err(err).Msg("Failed to notify deposit transaction")
	}

	return confirmation, nil
}

func confirmationFromQuote(quote *oneclick.Quote) types.Confirmation {
	c := types.Confirmation{
		DepositAddress:  quote.GetDepositAddress(),
		AmountIn:        quote.GetAmountInFormatted(),
		EstimatedOutput: quote.GetAmountOutFormatted(),
		TimeEstimate:    time.Duration(float64(quote.GetTimeEstimate()) * float64(time.Second)),
	}
	if quote.HasDepositMemo() {
		c.DepositMemo = quote.GetDepositMemo()
	}
	return c
}
