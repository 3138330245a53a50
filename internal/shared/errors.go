package shared

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the catalog core can return.
// Services wrap them with %w so handlers can map kind to status code.
var (
	// ErrValidation indicates malformed or schema-violating input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness or structural conflict (duplicate sku,
	// duplicate attribute name, existing inventory record, category cycle).
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates a dangling reference.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a movement that would drive the balance
	// negative while backorders are disabled.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrState indicates an illegal status transition.
	ErrState = errors.New("illegal state transition")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Conflictf wraps ErrConflict with a formatted detail message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// InsufficientStockf wraps ErrInsufficientStock with a formatted detail message.
func InsufficientStockf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInsufficientStock, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted detail message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Statef wraps ErrState with a formatted detail message.
func Statef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

// UserSafeMessage returns a message safe to surface to API consumers. Known
// error kinds carry their own detail; anything else collapses to a generic
// message so internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrState):
		return err.Error()
	default:
		return "internal error"
	}
}
