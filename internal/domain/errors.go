package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrMarketEnded  = errors.New("market ended")
	ErrBusy         = errors.New("order already in flight")
)

// TradeErrorKind classifies an order-lifecycle failure. Every kind is
// terminal for the current attempt; none of them crashes the terminal or
// leaves the state machine stuck.
type TradeErrorKind string

const (
	// TradeErrValidation covers bad shares/price/size-below-minimum.
	// Validation failures never reach the network.
	TradeErrValidation TradeErrorKind = "validation"

	// TradeErrInsufficientBalance means the wallet cannot fund the buy.
	TradeErrInsufficientBalance TradeErrorKind = "insufficient_balance"

	// TradeErrInsufficientAllowance means the spender contract needs an
	// approval before the buy can proceed.
	TradeErrInsufficientAllowance TradeErrorKind = "insufficient_allowance"

	// TradeErrInsufficientPosition means a sell exceeds held shares.
	TradeErrInsufficientPosition TradeErrorKind = "insufficient_position"

	// TradeErrApprovalPending means an approval transaction was sent but
	// did not confirm within the polling ceiling. Non-fatal; retry once
	// the chain catches up.
	TradeErrApprovalPending TradeErrorKind = "approval_pending"

	// TradeErrLiquidity means a fill-or-kill order could not fill.
	TradeErrLiquidity TradeErrorKind = "liquidity"

	// TradeErrCredentialMismatch means the venue reported that the API
	// credentials do not belong to the active wallet. Recoverable via
	// re-authentication, not a generic failure.
	TradeErrCredentialMismatch TradeErrorKind = "credential_mismatch"

	// TradeErrVenueRejected covers venue-side rejections matched from the
	// raw error text (tick size, minimum size, duplicate order, ...).
	TradeErrVenueRejected TradeErrorKind = "venue_rejected"

	// TradeErrNetwork is any transport failure. Always retryable; never
	// corrupts local state.
	TradeErrNetwork TradeErrorKind = "network"
)

// TradeError is the typed failure produced by the order lifecycle.
type TradeError struct {
	Kind    TradeErrorKind
	Message string // user-facing
	Err     error  // underlying cause, may be nil
}

func (e *TradeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TradeError) Unwrap() error { return e.Err }

// NewTradeError builds a TradeError with a user-facing message.
func NewTradeError(kind TradeErrorKind, msg string) *TradeError {
	return &TradeError{Kind: kind, Message: msg}
}

// WrapTradeError builds a TradeError around an underlying cause.
func WrapTradeError(kind TradeErrorKind, msg string, err error) *TradeError {
	return &TradeError{Kind: kind, Message: msg, Err: err}
}

// TradeErrorKindOf extracts the kind from err, or "" when err is not a
// TradeError.
func TradeErrorKindOf(err error) TradeErrorKind {
	var te *TradeError
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}
