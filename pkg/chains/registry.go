package chains

import (
	"fmt"
	"strings"
)

// ID identifies a supported chain
type ID string

const (
	Ethereum ID = "ethereum"
	Tezos    ID = "tezos"
	Solana   ID = "solana"
)

// Family selects the address rules that apply to a chain
type Family string

const (
	FamilyEVM    Family = "evm"
	FamilyTezos  Family = "tezos"
	FamilySolana Family = "solana"
)

// Descriptor describes a supported chain. Descriptors are immutable once registered.
type Descriptor struct {
	ID         ID
	Name       string
	Symbol     string // Native asset symbol
	Decimals   int32  // Precision used when formatting amounts on this chain
	Accent     string // Display accent used by the presentation layer
	Icon       string
	Family     Family
	RouteChain string // Blockchain name used by the 1Click API
}

// Registry is a fixed, ordered set of chain descriptors
type Registry struct {
	order []ID
	byID  map[ID]Descriptor
}

// NewRegistry builds a registry from the given descriptors
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	if len(descriptors) < 2 {
		return nil, fmt.Errorf("registry needs at least two chains, got %d", len(descriptors))
	}

	r := &Registry{
		order: make([]ID, 0, len(descriptors)),
		byID:  make(map[ID]Descriptor, len(descriptors)),
	}

	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("chain identifier is required")
		}
		if _, exists := r.byID[d.ID]; exists {
			return nil, fmt.Errorf("duplicate chain '%s'", d.ID)
		}
		if d.Decimals < 0 {
			return nil, fmt.Errorf("chain '%s' has negative decimals", d.ID)
		}
		r.order = append(r.order, d.ID)
		r.byID[d.ID] = d
	}

	return r, nil
}

// Default returns the registry of chains supported out of the box
func Default() *Registry {
	r, err := NewRegistry(
		Descriptor{
			ID:         Ethereum,
			Name:       "Ethereum",
			Symbol:     "ETH",
			Decimals:   18,
			Accent:     "ethereum",
			Icon:       "🔷",
			Family:     FamilyEVM,
			RouteChain: "eth",
		},
		Descriptor{
			ID:         Tezos,
			Name:       "Tezos",
			Symbol:     "XTZ",
			Decimals:   6,
			Accent:     "tezos",
			Icon:       "🔵",
			Family:     FamilyTezos,
			RouteChain: "xtz",
		},
		Descriptor{
			ID:         Solana,
			Name:       "Solana",
			Symbol:     "SOL",
			Decimals:   9,
			Accent:     "solana",
			Icon:       "🟣",
			Family:     FamilySolana,
			RouteChain: "sol",
		},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the descriptor for a chain
func (r *Registry) Get(id ID) (Descriptor, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Has reports whether the chain is registered
func (r *Registry) Has(id ID) bool {
	_, ok := r.byID[id]
	return ok
}

// IDs returns the registered chain identifiers in registration order
func (r *Registry) IDs() []ID {
	ids := make([]ID, len(r.order))
	copy(ids, r.order)
	return ids
}

// Descriptors returns all descriptors in registration order
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Resolve finds a chain by identifier, native symbol or display name (case-insensitive)
func (r *Registry) Resolve(name string) (Descriptor, error) {
	name = strings.TrimSpace(name)
	for _, id := range r.order {
		d := r.byID[id]
		if strings.EqualFold(string(d.ID), name) ||
			strings.EqualFold(d.Symbol, name) ||
			strings.EqualFold(d.Name, name) {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("chain '%s' not supported", name)
}
