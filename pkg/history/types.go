package history

import (
	"time"

	"xchain-dex/pkg/types"
)

// Status defines the state of a recorded transfer
type Status string

const (
	StatusPending   Status = "pending"   // Transfer initiated, awaiting deposit
	StatusDeposited Status = "deposited" // Deposit sent
	StatusCompleted Status = "completed" // Funds delivered on the destination chain
	StatusFailed    Status = "failed"    // Initiation failed, or the transfer failed or was refunded
)

// Record is one submitted transfer
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SourceChain      string `json:"source_chain"`
	DestinationChain string `json:"destination_chain"`
	Amount           string `json:"amount"`
	RecipientAddress string `json:"recipient_address"`
	RefundAddress    string `json:"refund_address,omitempty"`

	DepositAddress    string `json:"deposit_address,omitempty"`
	DepositMemo       string `json:"deposit_memo,omitempty"`
	DepositTxHash     string `json:"deposit_tx_hash,omitempty"`
	EstimatedOutput   string `json:"estimated_output,omitempty"`
	ActualOutput      string `json:"actual_output,omitempty"`
	DestinationTxHash string `json:"destination_tx_hash,omitempty"`
	RemoteStatus      string `json:"remote_status,omitempty"` // Latest status reported by the API

	Status       Status     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// IsOpen reports whether the transfer may still change state
func (r *Record) IsOpen() bool {
	return (r.Status == StatusPending || r.Status == StatusDeposited) && r.DepositAddress != ""
}

// ApplyProgress folds the latest transfer progress into the record
func (r *Record) ApplyProgress(p *types.TransferProgress) {
	r.RemoteStatus = p.Status
	if p.AmountOut != "" {
		r.ActualOutput = p.AmountOut
	}
	if p.DestinationTxHash != "" {
		r.DestinationTxHash = p.DestinationTxHash
	}
	if r.DepositTxHash == "" && len(p.OriginTxHashes) > 0 {
		r.DepositTxHash = p.OriginTxHashes[0]
	}

	switch {
	case p.IsSuccess():
		r.Status = StatusCompleted
	case p.IsFailed():
		r.Status = StatusFailed
	case r.DepositTxHash != "":
		r.Status = StatusDeposited
	}

	if p.IsTerminal() && r.CompletedAt == nil {
		at := p.UpdatedAt
		if at.IsZero() {
			at = time.Now()
		}
		r.CompletedAt = &at
	}
}
