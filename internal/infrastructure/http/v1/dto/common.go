// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/types"
)

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ParseID parses a path/body id, mapping failures to a validation error.
func ParseID(field, raw string) (id.ID, error) {
	parsed, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return parsed, nil
}

// ParseMoney parses a decimal amount string, mapping failures to an
// invalid-amount error. Amounts travel as strings so clients never round
// them through binary floats.
func ParseMoney(field, raw string) (types.Money, error) {
	m, err := types.MoneyFromString(raw)
	if err != nil {
		return types.ZeroMoney(), apperror.NewInvalidAmount("malformed amount").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return m, nil
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return t, nil
}
