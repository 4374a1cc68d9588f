package domain

import (
	"errors"
	"testing"
)

func TestRejectionError_Error(t *testing.T) {
	err := &RejectionError{Err: ErrNotPositive, Message: "Quantity must be greater than zero"}
	if err.Error() != "Quantity must be greater than zero" {
		t.Errorf("Error() = %q, want %q", err.Error(), "Quantity must be greater than zero")
	}
	if err.Code() != "not_positive" {
		t.Errorf("Code() = %q, want %q", err.Code(), "not_positive")
	}
}

func TestRejectionError_UnwrapsToSentinel(t *testing.T) {
	var err error = reject(ErrInsufficientFunds, "Insufficient funds")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Error("errors.Is(err, ErrInsufficientFunds) = false")
	}
	if errors.Is(err, ErrInsufficientHoldings) {
		t.Error("errors.Is(err, ErrInsufficientHoldings) = true")
	}

	var rej *RejectionError
	if !errors.As(err, &rej) {
		t.Fatal("errors.As(*RejectionError) = false")
	}
}

func TestRejectionError_NilKind(t *testing.T) {
	err := &RejectionError{Message: "x"}
	if err.Code() != "" {
		t.Errorf("Code() = %q, want empty", err.Code())
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "initial cash must be > 0"}
	if err.Error() != "initial cash must be > 0" {
		t.Errorf("Error() = %q, want %q", err.Error(), "initial cash must be > 0")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrNotWholeNumber,
		ErrNotPositive,
		ErrQuantityTooLarge,
		ErrInsufficientFunds,
		ErrInsufficientHoldings,
		ErrSymbolNotFound,
		ErrInvalidSide,
		ErrOrderNotFound,
		ErrSessionEnded,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
