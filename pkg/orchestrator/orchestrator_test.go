package orchestrator

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xchain-dex/pkg/chains"
	"xchain-dex/pkg/types"
)

type fakeWallet struct {
	mu        sync.Mutex
	calls     int
	err       error
	panicWith any
	started   chan struct{}
	release   chan struct{}
}

func (w *fakeWallet) Connect(ctx context.Context) (types.WalletSession, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()

	if w.started != nil {
		w.started <- struct{}{}
	}
	if w.release != nil {
		<-w.release
	}
	if w.panicWith != nil {
		panic(w.panicWith)
	}
	if w.err != nil {
		return types.WalletSession{}, w.err
	}
	return types.WalletSession{Chain: "ethereum", Address: "0xrefund"}, nil
}

func (w *fakeWallet) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type fakeOracle struct {
	mu    sync.Mutex
	calls int
	rate  float64
	err   error
}

func (f *fakeOracle) GetRate(ctx context.Context, source, destination chains.ID) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.rate, f.err
}

func (f *fakeOracle) set(rate float64, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = rate
	f.err = err
}

func (f *fakeOracle) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExecutor struct {
	mu        sync.Mutex
	requests  []types.TransferRequest
	err       error
	panicWith any
	started   chan struct{}
	release   chan struct{}
}

func (e *fakeExecutor) Submit(ctx context.Context, req types.TransferRequest) (types.Confirmation, error) {
	e.mu.Lock()
	e.requests = append(e.requests, req)
	e.mu.Unlock()

	if e.started != nil {
		e.started <- struct{}{}
	}
	if e.release != nil {
		select {
		case <-e.release:
		case <-ctx.Done():
			return types.Confirmation{}, ctx.Err()
		}
	}
	if e.panicWith != nil {
		panic(e.panicWith)
	}
	if e.err != nil {
		return types.Confirmation{}, e.err
	}
	return types.Confirmation{DepositAddress: "0xdeposit", DepositTxHash: "0xhash"}, nil
}

func (e *fakeExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.requests)
}

func (e *fakeExecutor) Last() types.TransferRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requests[len(e.requests)-1]
}

type fixture struct {
	o        *Orchestrator
	wallet   *fakeWallet
	oracle   *fakeOracle
	executor *fakeExecutor
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		wallet:   &fakeWallet{},
		oracle:   &fakeOracle{rate: 1},
		executor: &fakeExecutor{},
	}
	o, err := New(chains.Default(), f.wallet, f.oracle, f.executor, opts...)
	require.NoError(t, err)
	f.o = o
	return f
}

func newConnectedFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := newFixture(t, opts...)
	require.Equal(t, Connected, f.o.ConnectWallet(context.Background()))
	return f
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for collaborator call")
	}
}

func TestNewDefaults(t *testing.T) {
	f := newFixture(t)
	snap := f.o.Snapshot()

	assert.Equal(t, chains.Ethereum, snap.SourceChain)
	assert.Equal(t, chains.Tezos, snap.DestinationChain)
	assert.Equal(t, Disconnected, snap.Connection)
	assert.True(t, snap.Status.IsNone())
	assert.Equal(t, DefaultRate, snap.Rate)
	assert.Empty(t, snap.Amount)
	assert.Empty(t, snap.RecipientAddress)
	assert.False(t, snap.HasEstimate)
	assert.False(t, snap.Busy)
}

func TestNewValidation(t *testing.T) {
	registry := chains.Default()
	wallet, oracle, executor := &fakeWallet{}, &fakeOracle{}, &fakeExecutor{}

	_, err := New(nil, wallet, oracle, executor)
	require.Error(t, err)

	_, err = New(registry, nil, oracle, executor)
	require.Error(t, err)

	_, err = New(registry, wallet, oracle, executor, WithChainPair(chains.Tezos, chains.Tezos))
	require.ErrorIs(t, err, ErrSameChain)

	_, err = New(registry, wallet, oracle, executor, WithChainPair(chains.Tezos, "bitcoin"))
	require.ErrorIs(t, err, ErrUnknownChain)

	o, err := New(registry, wallet, oracle, executor, WithChainPair(chains.Solana, chains.Ethereum))
	require.NoError(t, err)
	snap := o.Snapshot()
	assert.Equal(t, chains.Solana, snap.SourceChain)
	assert.Equal(t, chains.Ethereum, snap.DestinationChain)
}

func TestConnectWallet(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		panicWith  any
		wantState  WalletConnection
		wantStatus TransactionStatus
	}{
		{"success", nil, nil, Connected, Success(MsgWalletConnected)},
		{"failure", errors.New("user rejected"), nil, Disconnected, Failure(MsgWalletFailed)},
		{"panic", nil, "boom", Disconnected, Failure(MsgWalletFailed)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.wallet.err = tt.err
			f.wallet.panicWith = tt.panicWith

			state := f.o.ConnectWallet(context.Background())

			require.Equal(t, tt.wantState, state)
			require.Equal(t, tt.wantState, f.o.Connection())
			require.Equal(t, tt.wantStatus, f.o.Status())
			require.Equal(t, 1, f.wallet.Calls())
		})
	}
}

func TestConnectWalletRetryAfterFailure(t *testing.T) {
	f := newFixture(t)
	f.wallet.err = errors.New("timeout")
	require.Equal(t, Disconnected, f.o.ConnectWallet(context.Background()))

	f.wallet.err = nil
	require.Equal(t, Connected, f.o.ConnectWallet(context.Background()))
	require.Equal(t, "0xrefund", f.o.Snapshot().WalletAddress)

	// Connected is terminal; further calls do nothing
	require.Equal(t, Connected, f.o.ConnectWallet(context.Background()))
	require.Equal(t, 2, f.wallet.Calls())
}

func TestConnectWalletConcurrent(t *testing.T) {
	f := newFixture(t)
	f.wallet.started = make(chan struct{}, 2)
	f.wallet.release = make(chan struct{})

	var transitions int
	var mu sync.Mutex
	last := Disconnected
	f.o.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		if s.Connection == Connected && last != Connected {
			transitions++
		}
		last = s.Connection
	})

	done := make(chan WalletConnection)
	go func() { done <- f.o.ConnectWallet(context.Background()) }()
	waitFor(t, f.wallet.started)

	require.Equal(t, Connecting, f.o.ConnectWallet(context.Background()))

	close(f.wallet.release)
	require.Equal(t, Connected, <-done)
	require.Equal(t, Connected, f.o.Connection())
	require.Equal(t, 1, f.wallet.Calls())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, transitions)
}

func TestSelectChainPair(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.o.SelectChainPair(chains.Solana, chains.Tezos))
	snap := f.o.Snapshot()
	assert.Equal(t, chains.Solana, snap.SourceChain)
	assert.Equal(t, chains.Tezos, snap.DestinationChain)

	err := f.o.SelectChainPair(chains.Ethereum, chains.Ethereum)
	require.ErrorIs(t, err, ErrSameChain)

	err = f.o.SelectChainPair("bitcoin", chains.Ethereum)
	require.ErrorIs(t, err, ErrUnknownChain)

	snap = f.o.Snapshot()
	assert.Equal(t, chains.Solana, snap.SourceChain)
	assert.Equal(t, chains.Tezos, snap.DestinationChain)
}

func TestSwapChainPair(t *testing.T) {
	registry := chains.Default()
	for _, a := range registry.IDs() {
		for _, b := range registry.IDs() {
			if a == b {
				continue
			}
			t.Run(string(a)+"-"+string(b), func(t *testing.T) {
				f := newConnectedFixture(t)
				require.NoError(t, f.o.SelectChainPair(a, b))
				f.o.SetAmount("2.5")
				f.o.SetRecipientAddress("recipient")
				status := f.o.Status()

				f.o.SwapChainPair()

				snap := f.o.Snapshot()
				assert.Equal(t, b, snap.SourceChain)
				assert.Equal(t, a, snap.DestinationChain)
				assert.Equal(t, "", snap.Amount)
				assert.Equal(t, "recipient", snap.RecipientAddress)
				assert.Equal(t, status, snap.Status)
				assert.Equal(t, 0, f.oracle.Calls())
				assert.Equal(t, 0, f.executor.Calls())
			})
		}
	}
}

func TestEstimatedAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		rate        float64
		destination chains.ID
		want        string
		wantOK      bool
	}{
		{"tezos precision", "1.5", 2, chains.Tezos, "3.000000", true},
		{"ethereum precision", "1.5", 1, chains.Ethereum, "1.500000000000000000", true},
		{"solana precision", "3", 0.25, chains.Solana, "0.750000000", true},
		{"rounds to destination decimals", "0.1234567", 1, chains.Tezos, "0.123457", true},
		{"fractional rate", "10", 0.333333, chains.Tezos, "3.333330", true},
		{"surrounding spaces", " 2 ", 1, chains.Tezos, "2.000000", true},
		{"empty", "", 2, chains.Tezos, "", false},
		{"not a number", "abc", 2, chains.Tezos, "", false},
		{"zero", "0", 2, chains.Tezos, "", false},
		{"negative", "-1", 2, chains.Tezos, "", false},
		{"huge exponent", "1e50000000", 2, chains.Tezos, "", false},
		{"tiny exponent", "1e-50000000", 2, chains.Tezos, "", false},
		{"beyond float64 range", "10e308", 2, chains.Tezos, "", false},
		{"infinity", "Infinity", 2, chains.Tezos, "", false},
		{"nan", "NaN", 2, chains.Tezos, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := chains.Ethereum
			if tt.destination == chains.Ethereum {
				source = chains.Tezos
			}
			f := newFixture(t, WithChainPair(source, tt.destination))
			f.oracle.set(tt.rate, nil)
			f.o.RefreshRate(context.Background())
			calls := f.oracle.Calls()

			f.o.SetAmount(tt.amount)
			got, ok := f.o.EstimatedAmount()

			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
			require.Equal(t, calls, f.oracle.Calls())
			require.Equal(t, tt.amount, f.o.Snapshot().Amount)
		})
	}
}

func TestRefreshRate(t *testing.T) {
	f := newFixture(t)

	f.oracle.set(2.5, nil)
	require.Equal(t, 2.5, f.o.RefreshRate(context.Background()))
	require.Equal(t, 2.5, f.o.Rate())

	for _, bad := range []struct {
		rate float64
		err  error
	}{
		{0, errors.New("feed down")},
		{0, nil},
		{-1, nil},
		{math.NaN(), nil},
		{math.Inf(1), nil},
	} {
		f.oracle.set(bad.rate, bad.err)
		require.Equal(t, 2.5, f.o.RefreshRate(context.Background()))
	}
	require.Equal(t, 2.5, f.o.Rate())

	// Rates belong to an ordered pair
	f.o.SwapChainPair()
	require.Equal(t, DefaultRate, f.o.Rate())
	f.o.SwapChainPair()
	require.Equal(t, 2.5, f.o.Rate())
}

func TestSubmitTransferRequiresConnectedWallet(t *testing.T) {
	f := newFixture(t)
	f.o.SetAmount("1")
	f.o.SetRecipientAddress("tz1recipient")

	status := f.o.SubmitTransfer(context.Background())

	require.Equal(t, Failure(MsgFillAllFields), status)
	require.Equal(t, 0, f.executor.Calls())
}

func TestSubmitTransferValidation(t *testing.T) {
	tests := []struct {
		name      string
		amount    string
		recipient string
	}{
		{"empty amount", "", "tz1recipient"},
		{"non numeric amount", "one", "tz1recipient"},
		{"zero amount", "0", "tz1recipient"},
		{"negative amount", "-2", "tz1recipient"},
		{"huge exponent amount", "1e50000000", "tz1recipient"},
		{"tiny exponent amount", "1e-50000000", "tz1recipient"},
		{"infinite amount", "Infinity", "tz1recipient"},
		{"nan amount", "NaN", "tz1recipient"},
		{"empty recipient", "1", ""},
		{"blank recipient", "1", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newConnectedFixture(t)
			f.o.SetAmount(tt.amount)
			f.o.SetRecipientAddress(tt.recipient)

			status := f.o.SubmitTransfer(context.Background())

			require.Equal(t, Failure(MsgFillAllFields), status)
			require.Equal(t, 0, f.executor.Calls())
			require.False(t, f.o.Snapshot().Busy)
		})
	}
}

func TestSubmitTransferSuccess(t *testing.T) {
	f := newConnectedFixture(t)
	require.NoError(t, f.o.SelectChainPair(chains.Ethereum, chains.Tezos))
	f.o.SetAmount("1.5")
	f.o.SetRecipientAddress("tz1recipient")

	status := f.o.SubmitTransfer(context.Background())

	require.Equal(t, Success("Successfully initiated transfer of 1.5 ETH from Ethereum to Tezos"), status)

	snap := f.o.Snapshot()
	assert.Equal(t, "", snap.Amount)
	assert.Equal(t, "", snap.RecipientAddress)
	assert.False(t, snap.Busy)

	require.Equal(t, 1, f.executor.Calls())
	assert.Equal(t, types.TransferRequest{
		SourceChain:      "ethereum",
		DestinationChain: "tezos",
		Amount:           "1.5",
		RecipientAddress: "tz1recipient",
		RefundAddress:    "0xrefund",
	}, f.executor.Last())
}

func TestSubmitTransferTrimsAmount(t *testing.T) {
	f := newConnectedFixture(t)
	f.o.SetAmount(" 1.5 ")
	f.o.SetRecipientAddress("tz1recipient")

	status := f.o.SubmitTransfer(context.Background())

	require.Equal(t, Success("Successfully initiated transfer of 1.5 ETH from Ethereum to Tezos"), status)
	assert.Equal(t, "1.5", f.executor.Last().Amount)
}

func TestSubmitTransferRefundOnlyOnWalletChain(t *testing.T) {
	f := newConnectedFixture(t)
	f.o.SwapChainPair()
	f.o.SetAmount("3")
	f.o.SetRecipientAddress("0xrecipient")

	status := f.o.SubmitTransfer(context.Background())
	require.True(t, status.IsSuccess())

	last := f.executor.Last()
	assert.Equal(t, "tezos", last.SourceChain)
	assert.Empty(t, last.RefundAddress)
}

func TestSubmitTransferFailureKeepsInputs(t *testing.T) {
	for name, exec := range map[string]*fakeExecutor{
		"error": {err: errors.New("relay rejected")},
		"panic": {panicWith: "relay crashed"},
	} {
		t.Run(name, func(t *testing.T) {
			f := newConnectedFixture(t)
			f.executor = exec
			f.o.executor = exec
			f.o.SetAmount("1.5")
			f.o.SetRecipientAddress("tz1recipient")

			status := f.o.SubmitTransfer(context.Background())

			require.Equal(t, Failure(MsgTransferFailed), status)
			snap := f.o.Snapshot()
			assert.Equal(t, "1.5", snap.Amount)
			assert.Equal(t, "tz1recipient", snap.RecipientAddress)
			assert.False(t, snap.Busy)
			assert.Equal(t, Connected, snap.Connection)

			// The user can retry without re-entering data
			exec.err = nil
			exec.panicWith = nil
			require.True(t, f.o.SubmitTransfer(context.Background()).IsSuccess())
			require.Equal(t, 2, exec.Calls())
		})
	}
}

func TestSubmitTransferSingleFlight(t *testing.T) {
	f := newConnectedFixture(t)
	f.executor.started = make(chan struct{}, 2)
	f.executor.release = make(chan struct{})
	f.o.SetAmount("1")
	f.o.SetRecipientAddress("tz1recipient")

	done := make(chan TransactionStatus)
	go func() { done <- f.o.SubmitTransfer(context.Background()) }()
	waitFor(t, f.executor.started)

	require.True(t, f.o.Snapshot().Busy)
	second := f.o.SubmitTransfer(context.Background())
	require.Equal(t, Pending(), second)

	close(f.executor.release)
	require.True(t, (<-done).IsSuccess())
	require.Equal(t, 1, f.executor.Calls())
	require.False(t, f.o.Snapshot().Busy)
}

func TestSubmitTransferWhileConnecting(t *testing.T) {
	f := newFixture(t)
	f.wallet.started = make(chan struct{}, 1)
	f.wallet.release = make(chan struct{})
	f.o.SetAmount("1")
	f.o.SetRecipientAddress("tz1recipient")

	done := make(chan WalletConnection)
	go func() { done <- f.o.ConnectWallet(context.Background()) }()
	waitFor(t, f.wallet.started)

	require.Equal(t, Failure(MsgFillAllFields), f.o.SubmitTransfer(context.Background()))
	require.Equal(t, 0, f.executor.Calls())

	close(f.wallet.release)
	require.Equal(t, Connected, <-done)
}

func TestSubmitTransferCancelled(t *testing.T) {
	f := newConnectedFixture(t)
	f.executor.started = make(chan struct{}, 1)
	f.executor.release = make(chan struct{})
	f.o.SetAmount("1")
	f.o.SetRecipientAddress("tz1recipient")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan TransactionStatus)
	go func() { done <- f.o.SubmitTransfer(ctx) }()
	waitFor(t, f.executor.started)

	cancel()
	require.Equal(t, NoStatus(), <-done)

	snap := f.o.Snapshot()
	assert.False(t, snap.Busy)
	assert.Equal(t, "1", snap.Amount)
	assert.Equal(t, "tz1recipient", snap.RecipientAddress)
}

type executorFunc func(ctx context.Context, req types.TransferRequest) (types.Confirmation, error)

func (fn executorFunc) Submit(ctx context.Context, req types.TransferRequest) (types.Confirmation, error) {
	return fn(ctx, req)
}

func TestSubmitTransferCancelledAfterSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	executor := executorFunc(func(context.Context, types.TransferRequest) (types.Confirmation, error) {
		// The deposit went out before the caller gave up
		cancel()
		return types.Confirmation{DepositAddress: "0xdeposit", DepositTxHash: "0xhash"}, nil
	})
	o, err := New(chains.Default(), &fakeWallet{}, &fakeOracle{rate: 1}, executor)
	require.NoError(t, err)
	require.Equal(t, Connected, o.ConnectWallet(context.Background()))
	o.SetAmount("1")
	o.SetRecipientAddress("tz1recipient")

	status := o.SubmitTransfer(ctx)

	require.True(t, status.IsSuccess())
	snap := o.Snapshot()
	assert.False(t, snap.Busy)
	assert.Equal(t, "", snap.Amount)
	assert.Equal(t, "", snap.RecipientAddress)
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	f := newConnectedFixture(t)
	f.executor.started = make(chan struct{}, 1)
	f.executor.release = make(chan struct{})
	f.o.SetAmount("1")
	f.o.SetRecipientAddress("tz1recipient")

	done := make(chan TransactionStatus)
	go func() { done <- f.o.SubmitTransfer(context.Background()) }()
	waitFor(t, f.executor.started)

	f.o.Reset()
	f.o.SetAmount("7")
	f.o.SetRecipientAddress("tz1other")

	// Still busy with the first submission
	require.Equal(t, NoStatus(), f.o.SubmitTransfer(context.Background()))
	require.Equal(t, 1, f.executor.Calls())

	close(f.executor.release)
	require.Equal(t, NoStatus(), <-done)

	snap := f.o.Snapshot()
	assert.False(t, snap.Busy)
	assert.Equal(t, "7", snap.Amount)
	assert.Equal(t, "tz1other", snap.RecipientAddress)
}

func TestSubmitTransferAddressValidation(t *testing.T) {
	f := newConnectedFixture(t, WithAddressValidation())
	f.o.SetAmount("1")
	f.o.SetRecipientAddress("0x52908400098527886e0f7030069857d2e4169ee7")

	status := f.o.SubmitTransfer(context.Background())

	require.Equal(t, Failure("Invalid Tezos recipient address"), status)
	require.Equal(t, 0, f.executor.Calls())

	f.o.SwapChainPair()
	f.o.SetAmount("1")
	require.True(t, f.o.SubmitTransfer(context.Background()).IsSuccess())
	require.Equal(t, 1, f.executor.Calls())
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)

	var snaps []Snapshot
	unsubscribe := f.o.Subscribe(func(s Snapshot) {
		snaps = append(snaps, s)
	})

	f.o.SetAmount("2")
	f.o.SetRecipientAddress("tz1recipient")
	f.o.SwapChainPair()

	require.Len(t, snaps, 3)
	assert.Equal(t, "2", snaps[0].Amount)
	assert.True(t, snaps[0].HasEstimate)
	assert.Equal(t, "2.000000", snaps[0].EstimatedAmount)
	assert.Equal(t, "tz1recipient", snaps[1].RecipientAddress)
	assert.Equal(t, chains.Tezos, snaps[2].SourceChain)
	assert.Less(t, snaps[0].Version, snaps[1].Version)
	assert.Less(t, snaps[1].Version, snaps[2].Version)

	unsubscribe()
	unsubscribe()
	f.o.SetAmount("3")
	require.Len(t, snaps, 3)
}

func TestSubscriberPanicIsContained(t *testing.T) {
	f := newConnectedFixture(t)
	f.o.Subscribe(func(s Snapshot) {
		if s.Status.IsPending() {
			panic("render bug")
		}
	})
	var last Snapshot
	f.o.Subscribe(func(s Snapshot) { last = s })

	for i := 1; i <= 2; i++ {
		f.o.SetAmount("1")
		f.o.SetRecipientAddress("tz1recipient")

		var status TransactionStatus
		require.NotPanics(t, func() { status = f.o.SubmitTransfer(context.Background()) })

		require.True(t, status.IsSuccess())
		require.Equal(t, i, f.executor.Calls())
		require.False(t, f.o.Snapshot().Busy)
		require.True(t, last.Status.IsSuccess())
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newFixture(t, WithMetrics(reg))

	f.o.SubmitTransfer(context.Background())
	f.o.ConnectWallet(context.Background())
	f.o.SetAmount("1")
	f.o.SetRecipientAddress("tz1recipient")
	f.o.SubmitTransfer(context.Background())
	f.oracle.set(0, errors.New("down"))
	f.o.RefreshRate(context.Background())

	m := f.o.metrics
	assert.Equal(t, 1.0, testutil.ToFloat64(m.walletConnects.WithLabelValues(resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(resultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(resultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateRefreshes.WithLabelValues(resultFailure)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))

	_, err := New(chains.Default(), f.wallet, f.oracle, f.executor, WithMetrics(reg))
	require.Error(t, err)
}
