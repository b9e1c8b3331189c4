package orchestrator

import (
	"context"
	"errors"

	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/types"
)

// Error kinds. Collaborator failures are converted into a TransactionStatus at the
// orchestrator boundary; these values only reach logs and metrics.
var (
	ErrValidation      = errors.New("validation error")
	ErrConnection      = errors.New("wallet connection error")
	ErrTransfer        = errors.New("transfer error")
	ErrRateUnavailable = errors.New("rate unavailable")

	ErrSameChain    = errors.New("source and destination chains must differ")
	ErrUnknownChain = errors.New("unknown chain")
)

// WalletProvider connects the user's wallet
type WalletProvider interface {
	Connect(ctx context.Context) (types.WalletSession, error)
}

// RateOracle quotes how many destination units one source unit buys
type RateOracle interface {
	GetRate(ctx context.Context, source, destination chains.ID) (float64, error)
}

// TransferExecutor initiates a transfer with the bridge or relay service
type TransferExecutor interface {
	Submit(ctx context.Context, req types.TransferRequest) (types.Confirmation, error)
}
