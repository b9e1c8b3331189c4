package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"xchain-dex/pkg/history"
	"xchain-dex/pkg/types"
)

const (
	DefaultInterval    = 30 * time.Second
	MinInterval        = 5 * time.Second // Avoids rate limiting when set from the command line
	DefaultMaxAttempts = 120             // One hour at the default interval
	OpenTransferMaxAge = 24 * time.Hour
)

// ErrTimeout is returned when a transfer is still open after the maximum number of checks
var ErrTimeout = errors.New("transfer did not reach a final state in time")

// StatusSource reports the progress of a transfer by its deposit address
type StatusSource interface {
	GetTransferProgress(ctx context.Context, depositAddress string) (*types.TransferProgress, error)
}

// Watcher polls transfer progress and keeps the history store up to date
type Watcher struct {
	source      StatusSource
	store       *history.Store
	interval    time.Duration
	maxAttempts int
	log         zerolog.Logger
}

// Option configures a Watcher
type Option func(*Watcher)

// WithInterval sets the polling interval
func WithInterval(interval time.Duration) Option {
	return func(w *Watcher) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithMaxAttempts bounds the number of checks per transfer; 0 means unbounded
func WithMaxAttempts(n int) Option {
	return func(w *Watcher) {
		if n >= 0 {
			w.maxAttempts = n
		}
	}
}

// WithStore records progress in store
func WithStore(store *history.Store) Option {
	return func(w *Watcher) { w.store = store }
}

// NewWatcher creates a watcher
func NewWatcher(source StatusSource, logger zerolog.Logger, opts ...Option) *Watcher {
	w := &Watcher{
		source:      source,
		interval:    DefaultInterval,
		maxAttempts: DefaultMaxAttempts,
		log:         logger.With().Str("component", "monitor").Logger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch checks the transfer until it is terminal. onUpdate, if set, is called
// whenever the reported status changes. Lookup errors are logged and retried.
func (w *Watcher) Watch(ctx context.Context, depositAddress string, onUpdate func(*types.TransferProgress)) (*types.TransferProgress, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var last *types.TransferProgress
	for attempt := 1; ; attempt++ {
		progress, err := w.Check(ctx, depositAddress)
		if err != nil {
			w.log.Debug().Err(err).Str("deposit_address", depositAddress).Msg("Status check failed, will retry")
		} else {
			if onUpdate != nil && (last == nil || last.Status != progress.Status) {
				onUpdate(progress)
			}
			last = progress
			if progress.IsTerminal() {
				return progress, nil
			}
		}

		if w.maxAttempts > 0 && attempt >= w.maxAttempts {
			return last, ErrTimeout
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Check fetches the current progress once and records it
func (w *Watcher) Check(ctx context.Context, depositAddress string) (*types.TransferProgress, error) {
	progress, err := w.source.GetTransferProgress(ctx, depositAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	w.record(progress)

	switch {
	case progress.IsSuccess():
		w.log.Info().Str("deposit_address", depositAddress).Str("received", progress.AmountOut).Msg("Transfer completed")
	case progress.IsFailed():
		w.log.Warn().Str("deposit_address", depositAddress).Str("status", progress.Status).Msg("Transfer failed")
	}

	return progress, nil
}

// CheckOpen checks every recent open transfer in the store once and returns
// how many reached a final state
func (w *Watcher) CheckOpen(ctx context.Context) (int, error) {
	if w.store == nil {
		return 0, fmt.Errorf("no history store configured")
	}

	settled := 0
	for _, record := range w.store.Open() {
		if err := ctx.Err(); err != nil {
			return settled, err
		}
		if time.Since(record.CreatedAt) > OpenTransferMaxAge {
			continue
		}

		progress, err := w.Check(ctx, record.DepositAddress)
		if err != nil {
			w.log.Debug().Err(err).Str("id", record.ID).Msg("Status check failed")
			continue
		}
		if progress.IsTerminal() {
			settled++
		}
	}

	return settled, nil
}

func (w *Watcher) record(progress *types.TransferProgress) {
	if w.store == nil {
		return
	}

	record, err := w.store.FindByDepositAddress(progress.DepositAddress)
	if err != nil {
		return
	}

	if _, err := w.store.Update(record.ID, func(r *history.Record) { r.ApplyProgress(progress) }); err != nil {
		w.log.Warn().Err(err).Str("id", record.ID).Msg("Error updating transfer record")
	}
}
