package types

import "time"

// TransferRequest is what the orchestrator hands to a transfer executor
type TransferRequest struct {
	SourceChain      string
	DestinationChain string
	Amount           string
	RecipientAddress string
	RefundAddress    string
}

// Confirmation is returned by an executor once a transfer has been initiated
type Confirmation struct {
	DepositAddress  string
	DepositMemo     string
	DepositTxHash   string
	AmountIn        string
	EstimatedOutput string
	TimeEstimate    time.Duration
}

// WalletSession describes a connected wallet
type WalletSession struct {
	Chain   string
	Address string
	Balance string
}

// TransferProgress holds the latest known state of an initiated transfer
type TransferProgress struct {
	DepositAddress    string
	Status            string
	AmountIn          string
	AmountOut         string
	OriginTxHashes    []string
	DestinationTxHash string
	UpdatedAt         time.Time
}

// IsTerminal reports whether the transfer reached a final state
func (p *TransferProgress) IsTerminal() bool {
	return p.IsSuccess() || p.IsFailed()
}

// IsSuccess reports whether the transfer completed
func (p *TransferProgress) IsSuccess() bool {
	return p.Status == "SUCCESS" || p.Status == "COMPLETED"
}

// IsFailed reports whether the transfer failed or was refunded
func (p *TransferProgress) IsFailed() bool {
	return p.Status == "FAILED" || p.Status == "REFUNDED"
}
