package client

import (
	"context"
	"fmt"
	"sync"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"xchain-dex/pkg/chains"
)

// DefaultProbeAmount is the source amount quoted when probing a rate
const DefaultProbeAmount = "1"

// RateOracle derives exchange rates from dry 1Click quotes
type RateOracle struct {
	client      *OneClickClient
	registry    *chains.Registry
	probeAmount string
	log         zerolog.Logger

	mu     sync.RWMutex
	probes map[chains.ID]string // Addresses used as recipient/refund for dry quotes
}

// NewRateOracle creates a rate oracle backed by the 1Click API
func NewRateOracle(apiClient *OneClickClient, registry *chains.Registry, logger zerolog.Logger) *RateOracle {
	return &RateOracle{
		client:      apiClient,
		registry:    registry,
		probeAmount: DefaultProbeAmount,
		log:         logger.With().Str("component", "rate").Logger(),
		probes:      make(map[chains.ID]string),
	}
}

// SetProbeAddress sets the address used for chain when requesting dry quotes
func (r *RateOracle) SetProbeAddress(chain chains.ID, address string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes[chain] = address
}

func (r *RateOracle) probeAddress(chain chains.ID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.probes[chain]
}

// GetRate returns how many destination units one source unit buys
func (r *RateOracle) GetRate(ctx context.Context, source, destination chains.ID) (float64, error) {
	sourceChain, destChain, err := resolvePair(r.registry, source, destination)
	if err != nil {
		return 0, err
	}

	recipient := r.probeAddress(destination)
	if recipient == "" {
		return 0, fmt.Errorf("no probe address configured for %s", destChain.Name)
	}

	sourceAsset, destAsset, err := findAssets(ctx, r.client, sourceChain, destChain)
	if err != nil {
		return 0, err
	}

	quote, err := r.client.GetQuote(ctx, QuoteRequest{
		Dry:         true,
		SourceAsset: sourceAsset,
		DestAsset:   destAsset,
		Amount:      r.probeAmount,
		Recipient:   recipient,
		RefundTo:    r.probeAddress(source),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get quote: %w", err)
	}

	rate, err := RateFromAmounts(quote.GetAmountInFormatted(), quote.GetAmountOutFormatted())
	if err != nil {
		return 0, err
	}

	r.log.Debug().
		Str("source", string(source)).
		Str("destination", string(destination)).
		Float64("rate", rate).
		Msg("Rate quoted")

	return rate, nil
}

// RateFromAmounts computes amountOut / amountIn
func RateFromAmounts(amountIn, amountOut string) (float64, error) {
	in, err := decimal.NewFromString(amountIn)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount in: %w", err)
	}
	out, err := decimal.NewFromString(amountOut)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount out: %w", err)
	}

	if !in.IsPositive() {
		return 0, fmt.Errorf("invalid amount in: %s", amountIn)
	}

	rate, _ := out.Div(in).Float64()
	return rate, nil
}

func resolvePair(registry *chains.Registry, source, destination chains.ID) (chains.Descriptor, chains.Descriptor, error) {
	sourceChain, ok := registry.Get(source)
	if !ok {
		return chains.Descriptor{}, chains.Descriptor{}, fmt.Errorf("chain '%s' not supported", source)
	}
	destChain, ok := registry.Get(destination)
	if !ok {
		return chains.Descriptor{}, chains.Descriptor{}, fmt.Errorf("chain '%s' not supported", destination)
	}
	return sourceChain, destChain, nil
}

// findAssets looks up the native asset of each chain
func findAssets(ctx context.Context, c *OneClickClient, source, destination chains.Descriptor) (*oneclick.TokenResponse, *oneclick.TokenResponse, error) {
	sourceAsset, err := c.FindTokenOnChain(ctx, source.Symbol, source.RouteChain)
	if err != nil {
		return nil, nil, fmt.Errorf("source token error: %w", err)
	}

	destAsset, err := c.FindTokenOnChain(ctx, destination.Symbol, destination.RouteChain)
	if err != nil {
		return nil, nil, fmt.Errorf("destination token error: %w", err)
	}

	return sourceAsset, destAsset, nil
}
