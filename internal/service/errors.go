package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced product, transaction or request is missing.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates a role, ownership or time-window violation.
	// Deliberately carries no detail beyond "not permitted".
	ErrForbidden = errors.New("not permitted")
	// ErrAlreadyTerminal indicates a transition attempt on a request that
	// already left PENDING. Surfaced distinctly so clients refresh instead
	// of retrying.
	ErrAlreadyTerminal = errors.New("request has already been finalized")
	// ErrOutOfStock rejects new withdrawal requests against a product
	// whose stock is zero.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a malformed input: non-positive quantity, empty
// description, bad date format. Surfaced verbatim to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError rejects an OUT movement larger than the current
// stock. Available is included so the caller can show a precise message.
type InsufficientStockError struct {
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available, %d requested", e.Available, e.Requested)
}
