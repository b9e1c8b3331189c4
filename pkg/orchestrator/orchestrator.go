package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/types"
)

// DefaultRate is used for a chain pair the oracle has not quoted yet
const DefaultRate = 1.0

// Amounts must stay within the finite float64 range
const (
	maxAmountExponent = 308
	minAmountExponent = -324
)

var errInvalidRecipient = fmt.Errorf("%w: invalid recipient address", ErrValidation)

type pair struct {
	source      chains.ID
	destination chains.ID
}

// Snapshot is a consistent copy of the state visible to the presentation layer
type Snapshot struct {
	Version          uint64            `json:"version"`
	Connection       WalletConnection  `json:"connection"`
	WalletAddress    string            `json:"wallet_address,omitempty"`
	SourceChain      chains.ID         `json:"source_chain"`
	DestinationChain chains.ID         `json:"destination_chain"`
	Amount           string            `json:"amount"`
	RecipientAddress string            `json:"recipient_address"`
	Rate             float64           `json:"rate"`
	EstimatedAmount  string            `json:"estimated_amount,omitempty"`
	HasEstimate      bool              `json:"has_estimate"`
	Status           TransactionStatus `json:"status"`
	Busy             bool              `json:"busy"`
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used for collaborator failures and lifecycle events
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = logger
	}
}

// WithMetrics registers the orchestrator's collectors with reg
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Orchestrator) {
		o.registerer = reg
	}
}

// WithChainPair sets the initial source and destination chains
func WithChainPair(source, destination chains.ID) Option {
	return func(o *Orchestrator) {
		o.source = source
		o.destination = destination
	}
}

// WithAddressValidation makes submission check the recipient against the destination chain's address rules
func WithAddressValidation() Option {
	return func(o *Orchestrator) {
		o.validateAddresses = true
	}
}

// Orchestrator owns the state of one transfer interaction and sequences calls
// to the wallet, rate oracle and transfer executor.
type Orchestrator struct {
	registry *chains.Registry
	wallet   WalletProvider
	oracle   RateOracle
	executor TransferExecutor

	log               zerolog.Logger
	registerer        prometheus.Registerer
	metrics           *metrics
	validateAddresses bool

	mu          sync.Mutex
	connection  WalletConnection
	session     types.WalletSession
	source      chains.ID
	destination chains.ID
	amount      string
	recipient   string
	rates       map[pair]float64
	status      TransactionStatus
	busy        bool
	generation  uint64 // bumped by Reset so a settling submission knows it is stale
	version     uint64

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// New creates an orchestrator. The chain pair defaults to the first two registry entries.
func New(registry *chains.Registry, wallet WalletProvider, oracle RateOracle, executor TransferExecutor, opts ...Option) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("chain registry is required")
	}
	if wallet == nil || oracle == nil || executor == nil {
		return nil, fmt.Errorf("wallet provider, rate oracle and transfer executor are required")
	}

	ids := registry.IDs()
	o := &Orchestrator{
		registry:    registry,
		wallet:      wallet,
		oracle:      oracle,
		executor:    executor,
		log:         zerolog.Nop(),
		source:      ids[0],
		destination: ids[1],
		rates:       make(map[pair]float64),
		status:      NoStatus(),
		subscribers: make(map[int]func(Snapshot)),
	}

	for _, opt := range opts {
		opt(o)
	}

	if err := o.checkPair(o.source, o.destination); err != nil {
		return nil, err
	}

	if o.registerer != nil {
		m, err := newMetrics(o.registerer)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}

	return o, nil
}

// Registry returns the chain registry the orchestrator resolves chains against
func (o *Orchestrator) Registry() *chains.Registry {
	return o.registry
}

// ConnectWallet connects the wallet. Calls made while a connection is in progress
// or already established return the current state without side effects.
func (o *Orchestrator) ConnectWallet(ctx context.Context) WalletConnection {
	o.mu.Lock()
	if o.connection != Disconnected {
		state := o.connection
		o.mu.Unlock()
		return state
	}
	o.connection = Connecting
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)

	session, err := o.connect(ctx)

	o.mu.Lock()
	if err != nil {
		o.connection = Disconnected
		o.status = Failure(MsgWalletFailed)
	} else {
		o.connection = Connected
		o.session = session
		o.status = Success(MsgWalletConnected)
	}
	state := o.connection
	snap = o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)

	if err != nil {
		o.log.Warn().Err(err).Msg("Wallet connection failed")
		o.metrics.walletConnect(resultFailure)
	} else {
		o.log.Info().Str("address", session.Address).Str("chain", session.Chain).Msg("Wallet connected")
		o.metrics.walletConnect(resultSuccess)
	}

	return state
}

func (o *Orchestrator) connect(ctx context.Context) (session types.WalletSession, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: wallet provider panicked: %v", ErrConnection, r)
		}
	}()

	session, err = o.wallet.Connect(ctx)
	if err != nil {
		return types.WalletSession{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return session, nil
}

// SelectChainPair sets both chains. Equal or unregistered chains are rejected and
// the current pair is kept.
func (o *Orchestrator) SelectChainPair(source, destination chains.ID) error {
	if err := o.checkPair(source, destination); err != nil {
		return err
	}

	o.mu.Lock()
	o.source = source
	o.destination = destination
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)

	return nil
}

func (o *Orchestrator) checkPair(source, destination chains.ID) error {
	if !o.registry.Has(source) {
		return fmt.Errorf("%w: %s", ErrUnknownChain, source)
	}
	if !o.registry.Has(destination) {
		return fmt.Errorf("%w: %s", ErrUnknownChain, destination)
	}
	if source == destination {
		return fmt.Errorf("%w: %s", ErrSameChain, source)
	}
	return nil
}

// SwapChainPair exchanges source and destination and clears the amount
func (o *Orchestrator) SwapChainPair() {
	o.mu.Lock()
	o.source, o.destination = o.destination, o.source
	o.amount = ""
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)
}

// SetAmount stores the raw amount input
func (o *Orchestrator) SetAmount(value string) {
	o.mu.Lock()
	o.amount = value
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)
}

// SetRecipientAddress stores the raw recipient input
func (o *Orchestrator) SetRecipientAddress(value string) {
	o.mu.Lock()
	o.recipient = value
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)
}

// EstimatedAmount returns amount * rate at the destination chain's precision.
// The second result is false when the amount is not a positive number.
func (o *Orchestrator) EstimatedAmount() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.estimateLocked()
}

func (o *Orchestrator) estimateLocked() (string, bool) {
	destination, _ := o.registry.Get(o.destination)
	return Estimate(o.amount, o.rateLocked(), destination.Decimals)
}

// Estimate returns amount * rate rounded to decimals places, or false for a non-positive amount
func Estimate(amount string, rate float64, decimals int32) (string, bool) {
	value, ok := parseAmount(amount)
	if !ok {
		return "", false
	}
	return value.Mul(decimal.NewFromFloat(rate)).StringFixed(decimals), true
}

// parseAmount accepts only strictly positive, finite decimal numbers
func parseAmount(amount string) (decimal.Decimal, bool) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(amount)
	if err != nil || !value.IsPositive() {
		return decimal.Decimal{}, false
	}
	// Checked before any arithmetic: a huge exponent makes rescaling unbounded
	if exp := value.Exponent(); exp > maxAmountExponent || exp < minAmountExponent {
		return decimal.Decimal{}, false
	}
	if f, _ := value.Float64(); math.IsInf(f, 0) || f == 0 {
		return decimal.Decimal{}, false
	}
	return value, true
}

// Rate returns the exchange rate for the current chain pair
func (o *Orchestrator) Rate() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rateLocked()
}

func (o *Orchestrator) rateLocked() float64 {
	if rate, ok := o.rates[pair{o.source, o.destination}]; ok {
		return rate
	}
	return DefaultRate
}

// RefreshRate asks the oracle for the current pair's rate. When the oracle fails
// the previous rate is kept.
func (o *Orchestrator) RefreshRate(ctx context.Context) float64 {
	o.mu.Lock()
	p := pair{o.source, o.destination}
	o.mu.Unlock()

	rate, err := o.fetchRate(ctx, p)

	o.mu.Lock()
	if err != nil {
		current := o.rateLocked()
		o.mu.Unlock()
		o.log.Warn().Err(err).
			Str("source", string(p.source)).
			Str("destination", string(p.destination)).
			Float64("retained", current).
			Msg("Exchange rate unavailable")
		o.metrics.rateRefresh(resultFailure)
		return current
	}
	o.rates[p] = rate
	current := o.rateLocked()
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)

	o.log.Debug().
		Str("source", string(p.source)).
		Str("destination", string(p.destination)).
		Float64("rate", rate).
		Msg("Exchange rate updated")
	o.metrics.rateRefresh(resultSuccess)

	return current
}

func (o *Orchestrator) fetchRate(ctx context.Context, p pair) (rate float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: rate oracle panicked: %v", ErrRateUnavailable, r)
		}
	}()

	rate, err = o.oracle.GetRate(ctx, p.source, p.destination)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRateUnavailable, err)
	}
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return 0, fmt.Errorf("%w: oracle returned %v", ErrRateUnavailable, rate)
	}
	return rate, nil
}

// SubmitTransfer validates the request and hands it to the executor. A call made
// while another submission is in flight is ignored and returns the current status.
// If ctx is cancelled and the executor fails, the result is discarded; a transfer
// the executor reports as initiated is always applied.
func (o *Orchestrator) SubmitTransfer(ctx context.Context) TransactionStatus {
	o.mu.Lock()
	if o.busy {
		status := o.status
		o.mu.Unlock()
		o.log.Debug().Msg("Transfer already in flight, ignoring submission")
		o.metrics.submission(resultIgnored)
		return status
	}

	req, err := o.prepareLocked()
	if err != nil {
		if errors.Is(err, errInvalidRecipient) {
			destination, _ := o.registry.Get(o.destination)
			o.status = Failure(invalidRecipientMessage(destination))
		} else {
			o.status = Failure(MsgFillAllFields)
		}
		status := o.status
		snap := o.commitLocked()
		o.mu.Unlock()
		o.publish(snap)
		o.log.Debug().Err(err).Msg("Transfer rejected")
		o.metrics.submission(resultRejected)
		return status
	}

	o.busy = true
	o.status = Pending()
	generation := o.generation
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)
	o.metrics.setInFlight(true)

	o.log.Info().
		Str("source", req.SourceChain).
		Str("destination", req.DestinationChain).
		Str("amount", req.Amount).
		Msg("Submitting transfer")

	confirmation, err := o.execute(ctx, req)

	o.mu.Lock()
	o.busy = false
	result := resultSuccess
	switch {
	case generation != o.generation:
		result = resultDiscarded
	case err != nil && ctx.Err() != nil:
		o.status = NoStatus()
		result = resultCancelled
	case err != nil:
		o.status = Failure(MsgTransferFailed)
		result = resultFailure
	default:
		source, _ := o.registry.Get(chains.ID(req.SourceChain))
		destination, _ := o.registry.Get(chains.ID(req.DestinationChain))
		o.status = Success(transferSuccessMessage(req.Amount, source, destination))
		o.amount = ""
		o.recipient = ""
	}
	status := o.status
	snap = o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)
	o.metrics.setInFlight(false)
	o.metrics.submission(result)

	switch result {
	case resultSuccess:
		event := o.log.Info()
		if ctx.Err() != nil {
			event = o.log.Warn().AnErr("context_error", ctx.Err())
		}
		event.
			Str("deposit_address", confirmation.DepositAddress).
			Str("tx_hash", confirmation.DepositTxHash).
			Msg("Transfer initiated")
	case resultFailure:
		o.log.Warn().Err(err).Msg("Transfer failed")
	default:
		o.log.Info().Str("result", result).AnErr("executor_error", err).Msg("Transfer result dropped")
	}

	return status
}

func (o *Orchestrator) prepareLocked() (types.TransferRequest, error) {
	if o.connection != Connected {
		return types.TransferRequest{}, fmt.Errorf("%w: wallet not connected", ErrValidation)
	}
	if _, ok := parseAmount(o.amount); !ok {
		return types.TransferRequest{}, fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	}
	if strings.TrimSpace(o.recipient) == "" {
		return types.TransferRequest{}, fmt.Errorf("%w: recipient address is required", ErrValidation)
	}
	if o.source == o.destination {
		return types.TransferRequest{}, fmt.Errorf("%w: %w", ErrValidation, ErrSameChain)
	}
	if o.validateAddresses {
		if err := o.registry.ValidateAddress(o.destination, o.recipient); err != nil {
			return types.TransferRequest{}, fmt.Errorf("%w: %w", errInvalidRecipient, err)
		}
	}

	// The wallet can only receive refunds on the chain it is connected to
	var refund string
	if o.session.Chain == string(o.source) {
		refund = o.session.Address
	}

	return types.TransferRequest{
		SourceChain:      string(o.source),
		DestinationChain: string(o.destination),
		Amount:           strings.TrimSpace(o.amount),
		RecipientAddress: o.recipient,
		RefundAddress:    refund,
	}, nil
}

func (o *Orchestrator) execute(ctx context.Context, req types.TransferRequest) (confirmation types.Confirmation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: executor panicked: %v", ErrTransfer, r)
		}
	}()

	confirmation, err = o.executor.Submit(ctx, req)
	if err != nil {
		return types.Confirmation{}, fmt.Errorf("%w: %w", ErrTransfer, err)
	}
	return confirmation, nil
}

// Reset clears the form and the status. A submission still in flight keeps the
// orchestrator busy until it settles, but its result is not applied.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	o.amount = ""
	o.recipient = ""
	o.status = NoStatus()
	o.generation++
	snap := o.commitLocked()
	o.mu.Unlock()
	o.publish(snap)
}

// Status returns the current transaction status
func (o *Orchestrator) Status() TransactionStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Connection returns the wallet connection state
func (o *Orchestrator) Connection() WalletConnection {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.connection
}

// Snapshot returns a copy of the current state
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) commitLocked() Snapshot {
	o.version++
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	estimated, ok := o.estimateLocked()
	return Snapshot{
		Version:          o.version,
		Connection:       o.connection,
		WalletAddress:    o.session.Address,
		SourceChain:      o.source,
		DestinationChain: o.destination,
		Amount:           o.amount,
		RecipientAddress: o.recipient,
		Rate:             o.rateLocked(),
		EstimatedAmount:  estimated,
		HasEstimate:      ok,
		Status:           o.status,
		Busy:             o.busy,
	}
}

// Subscribe registers fn to receive a snapshot after every state change.
// Snapshots may be delivered out of order across goroutines; Version orders them.
func (o *Orchestrator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	o.subMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subscribers[id] = fn
	o.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.subMu.Lock()
			delete(o.subscribers, id)
			o.subMu.Unlock()
		})
	}
}

func (o *Orchestrator) publish(snap Snapshot) {
	o.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		fns = append(fns, fn)
	}
	o.subMu.Unlock()

	for _, fn := range fns {
		o.notify(fn, snap)
	}
}

func (o *Orchestrator) notify(fn func(Snapshot), snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Uint64("version", snap.Version).Msg("Subscriber panicked")
		}
	}()
	fn(snap)
}
