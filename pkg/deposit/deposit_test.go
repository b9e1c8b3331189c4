package deposit

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xchain-dex/config"
	"xchain-dex/pkg/chains"
)

type fakeDepositor struct {
	address string
	amount  string
	err     error
	closed  bool
}

func (f *fakeDepositor) SendDeposit(_ context.Context, address, amount string) (string, error) {
	f.address = address
	f.amount = amount
	if f.err != nil {
		return "", f.err
	}
	return "0xfeed", nil
}

func (f *fakeDepositor) Close() { f.closed = true }

func chain(t *testing.T, id chains.ID) chains.Descriptor {
	t.Helper()
	d, ok := chains.Default().Get(id)
	require.True(t, ok)
	return d
}

func TestIsEnabledForChain(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		kind    string
		chain   chains.ID
		want    bool
	}{
		{name: "evm wallet on ethereum", enabled: true, kind: config.WalletEVM, chain: chains.Ethereum, want: true},
		{name: "evm wallet on solana", enabled: true, kind: config.WalletEVM, chain: chains.Solana, want: false},
		{name: "solana wallet on solana", enabled: true, kind: config.WalletSolana, chain: chains.Solana, want: true},
		{name: "kind is case-insensitive", enabled: true, kind: "SOLANA", chain: chains.Solana, want: true},
		{name: "tezos has no depositor", enabled: true, kind: config.WalletEVM, chain: chains.Tezos, want: false},
		{name: "watch-only wallet", enabled: true, kind: config.WalletAddress, chain: chains.Ethereum, want: false},
		{name: "disabled", enabled: false, kind: config.WalletEVM, chain: chains.Ethereum, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(config.AutoDepositConfig{Enabled: tt.enabled}, config.WalletConfig{Kind: tt.kind}, zerolog.Nop())
			assert.Equal(t, tt.want, m.IsEnabledForChain(chain(t, tt.chain)))
		})
	}
}

func TestSupportedFamilies(t *testing.T) {
	m := NewManager(config.AutoDepositConfig{Enabled: true}, config.WalletConfig{Kind: config.WalletSolana}, zerolog.Nop())
	assert.Equal(t, []chains.Family{chains.FamilySolana}, m.SupportedFamilies())

	m = NewManager(config.AutoDepositConfig{}, config.WalletConfig{Kind: config.WalletSolana}, zerolog.Nop())
	assert.Empty(t, m.SupportedFamilies())
}

func TestSendDeposit(t *testing.T) {
	fake := &fakeDepositor{}
	m := NewManager(config.AutoDepositConfig{Enabled: true}, config.WalletConfig{Kind: config.WalletEVM}, zerolog.Nop())
	var requested chains.Family
	m.newDepositor = func(family chains.Family) (Depositor, error) {
		requested = family
		return fake, nil
	}

	hash, err := m.SendDeposit(context.Background(), chain(t, chains.Ethereum), "0xabc", "1.5")
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", hash)
	assert.Equal(t, chains.FamilyEVM, requested)
	assert.Equal(t, "0xabc", fake.address)
	assert.Equal(t, "1.5", fake.amount)
	assert.True(t, fake.closed)
}

func TestSendDepositErrors(t *testing.T) {
	m := NewManager(config.AutoDepositConfig{}, config.WalletConfig{Kind: config.WalletEVM}, zerolog.Nop())
	_, err := m.SendDeposit(context.Background(), chain(t, chains.Ethereum), "0xabc", "1")
	assert.ErrorContains(t, err, "not enabled in configuration")

	m = NewManager(config.AutoDepositConfig{Enabled: true}, config.WalletConfig{Kind: config.WalletEVM}, zerolog.Nop())
	_, err = m.SendDeposit(context.Background(), chain(t, chains.Tezos), "tz1", "1")
	assert.ErrorContains(t, err, "not enabled for chain: Tezos")

	fake := &fakeDepositor{err: errors.New("boom")}
	m.newDepositor = func(chains.Family) (Depositor, error) { return fake, nil }
	_, err = m.SendDeposit(context.Background(), chain(t, chains.Ethereum), "0xabc", "1")
	assert.EqualError(t, err, "boom")
	assert.True(t, fake.closed)
}

func TestNewDepositorsValidateConfig(t *testing.T) {
	_, err := NewEVMDepositor(config.EVMConfig{PrivateKey: "0x01"})
	assert.ErrorContains(t, err, "RPC URL not configured")

	_, err = NewEVMDepositor(config.EVMConfig{RPCUrl: "http://localhost:8545", PrivateKey: "not-hex"})
	assert.ErrorContains(t, err, "invalid private key")

	_, err = NewSolanaDepositor(config.SolanaConfig{RPCUrl: "http://localhost:8899"})
	assert.ErrorContains(t, err, "private key not configured")

	_, err = NewSolanaDepositor(config.SolanaConfig{RPCUrl: "http://localhost:8899", PrivateKey: "0OIl"})
	assert.ErrorContains(t, err, "invalid private key")
}

func TestToBaseUnits(t *testing.T) {
	wei, err := toBaseUnits("1.5", 18)
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", wei.String())

	lamports, err := toBaseUnits("0.000000001", 9)
	require.NoError(t, err)
	assert.Equal(t, "1", lamports.String())

	_, err = toBaseUnits("0.0000000001", 9)
	assert.Error(t, err)

	_, err = toBaseUnits("-2", 9)
	assert.Error(t, err)

	_, err = toBaseUnits("1e", 9)
	assert.Error(t, err)
}
