// Package apperrors defines the error taxonomy shared across services and
// repositories. Handlers translate these into HTTP status codes in one place.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a missing product, cart, or order.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock indicates a stock reservation could not be
	// satisfied. Order creation surfaces it without any partial mutation.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrProductInactive indicates the product exists but is not for sale.
	ErrProductInactive = errors.New("product inactive")

	// ErrCartEmpty indicates an order was requested from an empty cart.
	ErrCartEmpty = errors.New("cart is empty")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidTransitionError describes a rejected state machine move. The write
// is refused before any persistence happens.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition from %s to %s", e.Entity, e.From, e.To)
}
