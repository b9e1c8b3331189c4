package chains

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

// Tezos base58check prefixes. The first byte is carried as the base58check version.
var tezosPrefixes = map[string][]byte{
	"tz1": {6, 161, 159},
	"tz2": {6, 161, 161},
	"tz3": {6, 161, 164},
	"KT1": {2, 90, 121},
}

const tezosHashLength = 20

// ValidateAddress checks that addr is well-formed for the given chain
func (r *Registry) ValidateAddress(id ID, addr string) error {
	d, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("chain '%s' not supported", id)
	}
	return ValidateAddress(d.Family, addr)
}

// ValidateAddress checks that addr is well-formed for the chain family
func ValidateAddress(family Family, addr string) error {
	if addr == "" {
		return fmt.Errorf("address is required")
	}

	switch family {
	case FamilyEVM:
		return validateEVMAddress(addr)
	case FamilySolana:
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return fmt.Errorf("invalid solana address: %w", err)
		}
		return nil
	case FamilyTezos:
		return validateTezosAddress(addr)
	default:
		return fmt.Errorf("unknown chain family '%s'", family)
	}
}

func validateEVMAddress(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid evm address: %s", addr)
	}

	// Mixed-case addresses carry an EIP-55 checksum
	hexPart := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart) {
		if common.HexToAddress(addr).Hex() != "0x"+hexPart {
			return fmt.Errorf("invalid evm address checksum: %s", addr)
		}
	}

	return nil
}

func validateTezosAddress(addr string) error {
	if len(addr) < 3 {
		return fmt.Errorf("invalid tezos address: %s", addr)
	}

	prefix, ok := tezosPrefixes[addr[:3]]
	if !ok {
		return fmt.Errorf("invalid tezos address prefix: %s", addr)
	}

	payload, version, err := base58.CheckDecode(addr)
	if err != nil {
		return fmt.Errorf("invalid tezos address: %w", err)
	}

	if version != prefix[0] || len(payload) != len(prefix)-1+tezosHashLength ||
		!bytes.Equal(payload[:len(prefix)-1], prefix[1:]) {
		return fmt.Errorf("invalid tezos address: %s", addr)
	}

	return nil
}
