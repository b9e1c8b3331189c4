package history

import (
	"context"

	"github.com/rs/zerolog"

	"xchain-dex/pkg/types"
)

// Executor submits transfers
type Executor interface {
	Submit(ctx context.Context, req types.TransferRequest) (types.Confirmation, error)
}

// Recorder is an Executor that records every submission in a Store.
// Storage failures are logged and never change the submission result.
type Recorder struct {
	next  Executor
	store *Store
	log   zerolog.Logger
}

// NewRecorder wraps next so its submissions are recorded in store
func NewRecorder(next Executor, store *Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		next:  next,
		store: store,
		log:   logger.With().Str("component", "history").Logger(),
	}
}

// Submit forwards req and records the outcome
func (r *Recorder) Submit(ctx context.Context, req types.TransferRequest) (types.Confirmation, error) {
	confirmation, err := r.next.Submit(ctx, req)

	record := Record{
		SourceChain:      req.SourceChain,
		DestinationChain: req.DestinationChain,
		Amount:           req.Amount,
		RecipientAddress: req.RecipientAddress,
		RefundAddress:    req.RefundAddress,
		Status:           StatusPending,
	}

	if err != nil {
		record.Status = StatusFailed
		record.ErrorMessage = err.Error()
	} else {
		record.DepositAddress = confirmation.DepositAddress
		record.DepositMemo = confirmation.DepositMemo
		record.DepositTxHash = confirmation.DepositTxHash
		record.EstimatedOutput = confirmation.EstimatedOutput
		if confirmation.DepositTxHash != "" {
			record.Status = StatusDeposited
		}
	}

	saved, storeErr := r.store.Add(record)
	if storeErr != nil {
		r.log.Warn().Err(storeErr).Msg("Failed to record transfer")
	} else {
		r.log.Debug().Str("id", saved.ID).Str("status", string(saved.Status)).Msg("Transfer recorded")
	}

	return confirmation, err
}
