package parser

import (
	"fmt"
	"regexp"
	"strings"

	"xchain-dex/pkg/chains"
)

// Pattern: <amount> <source> TO <destination>
// Matches: "1 ETH TO XTZ", "1.5 ETHEREUM TO TEZOS", "0.25 SOL TO ETH"
var transferPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

// TransferCommand is a parsed transfer command with resolved chains
type TransferCommand struct {
	Amount      string
	Source      chains.Descriptor
	Destination chains.Descriptor
}

// ParseTransferCommand parses a natural language transfer command
// Examples:
//   - "transfer 1.5 ETH to XTZ"
//   - "1.5 ethereum to tezos"
//   - "2 SOL to ETH"
func ParseTransferCommand(command string, registry *chains.Registry) (*TransferCommand, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "TRANSFER ")

	matches := transferPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid transfer command format. Expected: 'transfer <amount> <chain> to <chain>' (e.g., 'transfer 1.5 ETH to XTZ')")
	}

	source, err := registry.Resolve(NormalizeChainName(matches[2]))
	if err != nil {
		return nil, fmt.Errorf("source chain error: %w", err)
	}

	destination, err := registry.Resolve(NormalizeChainName(matches[3]))
	if err != nil {
		return nil, fmt.Errorf("destination chain error: %w", err)
	}

	cmd := &TransferCommand{
		Amount:      matches[1],
		Source:      source,
		Destination: destination,
	}

	if err := ValidateTransferCommand(cmd); err != nil {
		return nil, err
	}

	return cmd, nil
}

// ValidateTransferCommand validates that a transfer command has all required fields
func ValidateTransferCommand(cmd *TransferCommand) error {
	if cmd.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if cmd.Source.ID == "" {
		return fmt.Errorf("source chain is required")
	}
	if cmd.Destination.ID == "" {
		return fmt.Errorf("destination chain is required")
	}
	if cmd.Source.ID == cmd.Destination.ID {
		return fmt.Errorf("source and destination chains must differ")
	}
	return nil
}

// NormalizeChainName maps common aliases to a name the registry resolves
func NormalizeChainName(name string) string {
	name = strings.TrimSpace(strings.ToUpper(name))

	aliases := map[string]string{
		"WETH":  "ETH",
		"ETHER": "ETH",
		"TEZ":   "XTZ",
		"WSOL":  "SOL",
	}

	if normalized, exists := aliases[name]; exists {
		return normalized
	}

	return name
}
