package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error independently of its HTTP status.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindInvalidProduct    Kind = "INVALID_PRODUCT"
	KindInvalidVariation  Kind = "INVALID_VARIATION"
	KindVariationRequired Kind = "VARIATION_REQUIRED"
	KindPaymentRequired   Kind = "PAYMENT_REQUIRED"
	KindNotEditable       Kind = "NOT_EDITABLE"
	KindInvalidState      Kind = "INVALID_STATE"
	KindOrderVoided       Kind = "ORDER_VOIDED"
	KindGatewayFailure    Kind = "GATEWAY_FAILURE"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindNotFound          Kind = "NOT_FOUND"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindForbidden         Kind = "FORBIDDEN"
	KindConflict          Kind = "CONFLICT"
	KindBadRequest        Kind = "BAD_REQUEST"
	KindRateLimited       Kind = "RATE_LIMITED"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`

	cause error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches errors of the same kind so callers can compare against the
// package-level sentinels with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Common errors
var (
	ErrNotFound           = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrUnauthorized       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Unauthorized"}
	ErrForbidden          = &AppError{Code: http.StatusForbidden, Kind: KindForbidden, Message: "Forbidden"}
	ErrBadRequest         = &AppError{Code: http.StatusBadRequest, Kind: KindBadRequest, Message: "Bad request"}
	ErrInternalServer     = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrConflict           = &AppError{Code: http.StatusConflict, Kind: KindConflict, Message: "Resource already exists"}
	ErrInvalidCredentials = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid email or password"}
	ErrTokenExpired       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Token has expired"}
	ErrInvalidToken       = &AppError{Code: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "Invalid token"}

	// Order lifecycle
	ErrValidation        = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindValidation, Message: "Validation failed"}
	ErrInvalidProduct    = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInvalidProduct, Message: "Invalid product"}
	ErrInvalidVariation  = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindInvalidVariation, Message: "Invalid variation"}
	ErrVariationRequired = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindVariationRequired, Message: "Variation is required"}
	ErrPaymentRequired   = &AppError{Code: http.StatusUnprocessableEntity, Kind: KindPaymentRequired, Message: "At least one payment is required to complete the order"}
	ErrNotEditable       = &AppError{Code: http.StatusConflict, Kind: KindNotEditable, Message: "Only draft orders can be edited"}
	ErrInvalidState      = &AppError{Code: http.StatusConflict, Kind: KindInvalidState, Message: "Order is not in a valid state for this operation"}
	ErrOrderVoided       = &AppError{Code: http.StatusConflict, Kind: KindOrderVoided, Message: "Cannot take payment for void order"}
	ErrGatewayFailure    = &AppError{Code: http.StatusInternalServerError, Kind: KindGatewayFailure, Message: "Storage operation failed"}
	ErrInsufficientStock = &AppError{Code: http.StatusConflict, Kind: KindInsufficientStock, Message: "Insufficient stock"}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is a shorthand for a validation error on a single field.
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewItemError reports a line item lookup failure. The item index is kept in
// the field path so clients can highlight the offending row.
func NewItemError(base *AppError, index int, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    base.Code,
		Kind:    base.Kind,
		Message: fmt.Sprintf(format, args...),
		Errors: []FieldError{{
			Field:   fmt.Sprintf("items[%d]", index),
			Message: fmt.Sprintf(format, args...),
		}},
	}
}

// WithMessage copies a sentinel with a more specific message.
func WithMessage(base *AppError, message string) *AppError {
	return &AppError{
		Code:    base.Code,
		Kind:    base.Kind,
		Message: message,
	}
}

// NewGatewayError wraps a failure reported by storage or the stock ledger.
// Errors that already carry a kind pass through untouched.
func NewGatewayError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindGatewayFailure,
		Message: op,
		cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: "Internal server error",
		cause:   err,
	}
}

func kindForStatus(code int) Kind {
	switch code {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		if code >= 500 {
			return KindInternal
		}
		return KindBadRequest
	}
}
