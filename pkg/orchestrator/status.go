package orchestrator

import (
	"fmt"

	"xchain-dex/pkg/chains"
)

// User-visible status messages
const (
	MsgWalletConnected = "Wallet connected successfully"
	MsgWalletFailed    = "Failed to connect wallet"
	MsgFillAllFields   = "Please fill in all fields"
	MsgTransferFailed  = "Transfer failed. Please try again."
)

// StatusKind tags a TransactionStatus
type StatusKind int

const (
	StatusNone StatusKind = iota
	StatusPending
	StatusSuccess
	StatusFailure
)

func (k StatusKind) String() string {
	switch k {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "error"
	default:
		return "none"
	}
}

// MarshalText renders the kind the way the presentation layer expects it
func (k StatusKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TransactionStatus is the outcome shown to the user. A new value replaces the previous one.
type TransactionStatus struct {
	Kind    StatusKind `json:"type"`
	Message string     `json:"message,omitempty"`
}

func NoStatus() TransactionStatus { return TransactionStatus{Kind: StatusNone} }
func Pending() TransactionStatus  { return TransactionStatus{Kind: StatusPending} }

func Success(message string) TransactionStatus {
	return TransactionStatus{Kind: StatusSuccess, Message: message}
}

func Failure(message string) TransactionStatus {
	return TransactionStatus{Kind: StatusFailure, Message: message}
}

func (s TransactionStatus) IsNone() bool    { return s.Kind == StatusNone }
func (s TransactionStatus) IsPending() bool { return s.Kind == StatusPending }
func (s TransactionStatus) IsSuccess() bool { return s.Kind == StatusSuccess }
func (s TransactionStatus) IsFailure() bool { return s.Kind == StatusFailure }

func (s TransactionStatus) String() string {
	if s.Message == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}

// WalletConnection is the wallet gating state of a session
type WalletConnection int

const (
	Disconnected WalletConnection = iota
	Connecting
	Connected
)

func (c WalletConnection) String() string {
	switch c {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

func (c WalletConnection) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func transferSuccessMessage(amount string, source, destination chains.Descriptor) string {
	return fmt.Sprintf("Successfully initiated transfer of %s %s from %s to %s",
		amount, source.Symbol, source.Name, destination.Name)
}

func invalidRecipientMessage(destination chains.Descriptor) string {
	return fmt.Sprintf("Invalid %s recipient address", destination.Name)
}
