package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"xchain-dex/pkg/types"
)

// OneClickClient wraps the 1Click SDK
type OneClickClient struct {
	client *oneclick.APIClient
	token  string
	log    zerolog.Logger
}

// QuoteRequest describes a quote for moving a native asset between two chains
type QuoteRequest struct {
	Dry         bool // Dry quotes do not allocate a deposit address
	SourceAsset *oneclick.TokenResponse
	DestAsset   *oneclick.TokenResponse
	Amount      string // Human-readable amount of the source asset
	Recipient   string
	RefundTo    string
}

// NewOneClickClient creates a new 1Click API client
func NewOneClickClient(jwtToken, baseURL string, logger zerolog.Logger) *OneClickClient {
	config := oneclick.NewConfiguration()
	if baseURL != "" {
		config.Servers = oneclick.ServerConfigurations{{URL: baseURL}}
	}

	return &OneClickClient{
		client: oneclick.NewAPIClient(config),
		token:  jwtToken,
		log:    logger.With().Str("component", "oneclick").Logger(),
	}
}

// authenticated attaches the JWT to the request context
func (c *OneClickClient) authenticated(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.token)
}

// GetSupportedTokens retrieves all supported tokens
func (c *OneClickClient) GetSupportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.authenticated(ctx)).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// FindTokenOnChain searches for a token by symbol on a specific chain
func (c *OneClickClient) FindTokenOnChain(ctx context.Context, symbol, chain string) (*oneclick.TokenResponse, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	chain = strings.ToLower(chain)

	for _, token := range tokens {
		if strings.ToUpper(token.GetSymbol()) == symbol &&
			strings.ToLower(token.GetBlockchain()) == chain {
			return &token, nil
		}
	}

	return nil, fmt.Errorf("token '%s' not found on chain '%s'", symbol, chain)
}

// GetQuote generates a transfer quote
func (c *OneClickClient) GetQuote(ctx context.Context, req QuoteRequest) (*oneclick.Quote, error) {
	if req.SourceAsset == nil || req.DestAsset == nil {
		return nil, fmt.Errorf("source and destination assets are required")
	}
	if req.Recipient == "" {
		return nil, fmt.Errorf("recipient address is required")
	}

	amount, err := ToSmallestUnit(req.Amount, int32(req.SourceAsset.GetDecimals()))
	if err != nil {
		return nil, err
	}

	// Refunds go back to the recipient when no refund address is known
	refundTo := req.RefundTo
	if refundTo == "" {
		refundTo = req.Recipient
	}

	deadline := time.Now().Add(24 * time.Hour)

	quoteReq := oneclick.NewQuoteRequest(
		req.Dry,                      // dry
		"EXACT_INPUT",                // swapType
		100,                          // slippageTolerance (1%)
		req.SourceAsset.GetAssetId(), // originAsset
		"ORIGIN_CHAIN",               // depositType
		req.DestAsset.GetAssetId(),   // destinationAsset
		amount,                       // amount in smallest unit
		refundTo,                     // refundTo
		"ORIGIN_CHAIN",               // refundType
		req.Recipient,                // recipient
		"DESTINATION_CHAIN",          // recipientType
		deadline,                     // deadline
	)

	c.log.Debug().
		Bool("dry", req.Dry).
		Str("origin", req.SourceAsset.GetAssetId()).
		Str("destination", req.DestAsset.GetAssetId()).
		Str("amount", amount).
		Msg("Requesting quote")

	resp, httpResp, err := c.client.OneClickAPI.GetQuote(c.authenticated(ctx)).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		if httpResp != nil {
			defer httpResp.Body.Close()
			body, readErr := io.ReadAll(httpResp.Body)
			if readErr == nil && len(body) > 0 {
				return nil, apiError(httpResp.StatusCode, body)
			}
			return nil, fmt.Errorf("failed to get quote from API (status: %d): %w", httpResp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to get quote from API: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	if resp == nil {
		return nil, fmt.Errorf("empty quote response")
	}

	quote := resp.GetQuote()
	return &quote, nil
}

// GetTransferProgress checks the execution status of a transfer by its deposit address
func (c *OneClickClient) GetTransferProgress(ctx context.Context, depositAddress string) (*types.TransferProgress, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetExecutionStatus(c.authenticated(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	progress := &types.TransferProgress{
		DepositAddress: depositAddress,
		Status:         strings.ToUpper(string(resp.GetStatus())),
		UpdatedAt:      resp.GetUpdatedAt(),
	}

	details := resp.GetSwapDetails()
	for _, tx := range details.GetOriginChainTxHashes() {
		if hash := tx.GetHash(); hash != "" {
			progress.OriginTxHashes = append(progress.OriginTxHashes, hash)
		}
	}
	if destTxs := details.GetDestinationChainTxHashes(); len(destTxs) > 0 {
		progress.DestinationTxHash = destTxs[0].GetHash()
	}
	if details.HasAmountInFormatted() {
		progress.AmountIn = details.GetAmountInFormatted()
	}
	if details.HasAmountOutFormatted() {
		progress.AmountOut = details.GetAmountOutFormatted()
	}

	return progress, nil
}

// SubmitDepositTx tells the API which transaction funded a deposit address
func (c *OneClickClient) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := c.client.OneClickAPI.SubmitDepositTx(c.authenticated(ctx)).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("failed to submit deposit: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
		return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return nil
}

// ToSmallestUnit converts a human-readable amount into base units, truncating extra precision
func ToSmallestUnit(amount string, decimals int32) (string, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", fmt.Errorf("invalid amount: %w", err)
	}
	if !value.IsPositive() {
		return "", fmt.Errorf("amount must be greater than 0")
	}

	units := value.Shift(decimals).Truncate(0)
	if units.IsZero() {
		return "", fmt.Errorf("amount %s is below the smallest unit", amount)
	}

	return units.String(), nil
}

// apiError extracts the message from an API error body
func apiError(status int, body []byte) error {
	var errorResp map[string]interface{}
	if err := json.Unmarshal(body, &errorResp); err == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", status, message)
		}
		if errors, ok := errorResp["errors"]; ok {
			return fmt.Errorf("API error (status %d): %v", status, errors)
		}
	}
	return fmt.Errorf("API error (status %d): %s", status, string(body))
}
