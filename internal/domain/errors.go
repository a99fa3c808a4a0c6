package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrBeverageNotFound      = errors.New("beverage not found")
	ErrEstablishmentNotFound = errors.New("establishment not found")
	ErrNotOwner              = errors.New("establishment is not owned by this user")
	ErrNoActiveSubscription  = errors.New("an active subscription is required to place an order")
	ErrInvalidStatus         = errors.New("invalid order status")
	ErrInvalidCommand        = errors.New("invalid command")
	ErrInvalidPayload        = errors.New("invalid payload")
	ErrHubClosed             = errors.New("fanout hub is closed")
	ErrSubscriberClosed      = errors.New("subscriber is closed")
	ErrQueueFull             = errors.New("subscriber queue full")
)

// Error codes for client responses.
const (
	ErrCodeOrderNotFound  = "ORDER_NOT_FOUND"
	ErrCodeNotOwner       = "NOT_OWNER"
	ErrCodeNoSubscription = "NO_ACTIVE_SUBSCRIPTION"
	ErrCodeOrderRejected  = "ORDER_REJECTED"
	ErrCodeInvalidCommand = "INVALID_COMMAND"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

// StoreError represents an error from the data layer.
type StoreError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
