package checkout

import (
	"errors"
	"fmt"
)

var (
	// ErrSubmissionInFlight is returned when a second submission is attempted
	// while one is already running for the same session. Duplicates are
	// rejected, never queued.
	ErrSubmissionInFlight = errors.New("checkout: submission already in flight")
	// ErrReferenceUsed is returned when a transaction reference has already
	// been used to create an intent in this session.
	ErrReferenceUsed = errors.New("checkout: transaction reference already used")
	// ErrIdentifierMissing is returned when a successful gateway outcome
	// carries no usable transaction identifier. Confirming with a synthetic
	// value would desynchronise the ledger, so this is fatal.
	ErrIdentifierMissing = errors.New("checkout: transaction identifier missing")
	// ErrCancelInFlight is returned when a cancellation is already running for
	// the same payment.
	ErrCancelInFlight = errors.New("checkout: cancellation already in flight")
	// ErrReasonRequired is returned when a cancellation has no reason text.
	ErrReasonRequired = errors.New("checkout: cancellation reason is required")
	// ErrInvalidTransition is returned when an intent status change would
	// break the state machine.
	ErrInvalidTransition = errors.New("checkout: invalid intent status transition")
)

// GatewayError reports that the hosted checkout resolved with the failure
// shape. Message is the gateway's text, surfaced verbatim.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("checkout: gateway failure %s: %s", e.Code, e.Message)
}

// IntentError reports that registering the pending payment with the ledger
// failed. Message is safe to show users.
type IntentError struct {
	Message string
	Err     error
}

func (e *IntentError) Error() string { return "checkout: create intent: " + e.Message }

func (e *IntentError) Unwrap() error { return e.Err }

// ConfirmError reports that the settlement confirmation failed. The pending
// ledger record is left as-is for manual reconciliation.
type ConfirmError struct {
	Message string
	Err     error
}

func (e *ConfirmError) Error() string { return "checkout: confirm: " + e.Message }

func (e *ConfirmError) Unwrap() error { return e.Err }

// CancelError reports that the ledger refused or failed a cancellation.
type CancelError struct {
	Message string
	Err     error
}

func (e *CancelError) Error() string { return "checkout: cancel: " + e.Message }

func (e *CancelError) Unwrap() error { return e.Err }
