package domain

import "errors"

// Sentinel errors identifying which order constraint failed. They travel
// inside RejectionError and are recorded on rejected orders as codes.
var (
	ErrNotWholeNumber       = errors.New("not_a_whole_number")
	ErrNotPositive          = errors.New("not_positive")
	ErrQuantityTooLarge     = errors.New("quantity_too_large")
	ErrInsufficientFunds    = errors.New("insufficient_funds")
	ErrInsufficientHoldings = errors.New("insufficient_holdings")
	ErrSymbolNotFound       = errors.New("symbol_not_found")
	ErrInvalidSide          = errors.New("invalid_side")
)

// RejectionError is an order validation failure. Err is one of the
// sentinels above; Message is the human-readable reason shown to the player.
type RejectionError struct {
	Err     error
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Code returns the machine-readable code of the failed constraint.
func (e *RejectionError) Code() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// Sentinel errors for session-level handling. The handler layer maps these
// to HTTP status codes.
var (
	ErrOrderNotFound = errors.New("order_not_found")
	ErrSessionEnded  = errors.New("session_ended")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func reject(kind error, message string) *RejectionError {
	return &RejectionError{Err: kind, Message: message}
}
