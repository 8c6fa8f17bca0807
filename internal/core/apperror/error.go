// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the ledger core
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation    = "VALIDATION_ERROR"
	CodeInvalidAmount = "INVALID_AMOUNT"

	// Business rule violations (422)
	CodeOverpayment      = "OVERPAYMENT"
	CodeBackdatedPayment = "BACKDATED_PAYMENT"
	CodeEmptyBatch       = "EMPTY_BATCH"
	CodeNegativeShipping = "NEGATIVE_SHIPPING"

	// Serialization races (409) - retryable
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the ledger core.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, amounts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidAmount creates an error for non-positive or malformed monetary input (400)
func NewInvalidAmount(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidAmount,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewOverpayment creates an error for a payment exceeding the pending balance (422)
func NewOverpayment(amount, pending string) *AppError {
	return &AppError{
		Code:       CodeOverpayment,
		Message:    "payment exceeds pending balance",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"amount": amount, "pending": pending},
	}
}

// NewBackdatedPayment creates an error for a payment dated before the
// obligation was created (422)
func NewBackdatedPayment(paymentDate, createdDate string) *AppError {
	return &AppError{
		Code:       CodeBackdatedPayment,
		Message:    "payment date precedes obligation creation",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"paymentDate": paymentDate, "createdDate": createdDate},
	}
}

// NewEmptyBatch creates an error for a purchase batch without line items (422)
func NewEmptyBatch() *AppError {
	return &AppError{
		Code:       CodeEmptyBatch,
		Message:    "purchase batch has no line items",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewNegativeShipping creates an error for negative shipping charges (422)
func NewNegativeShipping(shipping string) *AppError {
	return &AppError{
		Code:       CodeNegativeShipping,
		Message:    "shipping charges must not be negative",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"shipping": shipping},
	}
}

// NewConcurrentModification creates an optimistic locking error.
// Retryable: the caller lost a serialization race, not a terminal failure.
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified concurrently. Please retry.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDatabase creates a database error (500)
func NewDatabase(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Database error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsCode checks whether the error chain carries an AppError with the given code
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// IsOverpayment checks if error is CodeOverpayment
func IsOverpayment(err error) bool {
	return IsCode(err, CodeOverpayment)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return IsCode(err, CodeConcurrentModification)
}
