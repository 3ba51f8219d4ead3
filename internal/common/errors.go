package common

import "errors"

// Error codes shared across the routing pipeline and the HTTP surface.
const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeAmountNotPositive    = "AMOUNT_NOT_POSITIVE"
	CodeInvalidCurrency      = "INVALID_CURRENCY"
	CodeCurrencyNotSupported = "CURRENCY_NOT_SUPPORTED_IN_REGION"
	CodeDestinationRequired  = "PAYOUT_DESTINATION_REQUIRED"
	CodeGatewayNotConfigured = "GATEWAY_NOT_CONFIGURED"
	CodeGatewayTimeout       = "GATEWAY_TIMEOUT"
	CodeGatewayUnavailable   = "GATEWAY_UNAVAILABLE"
	CodeInternal             = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ErrorCode extracts the code carried by an AppError, or returns fallback.
func ErrorCode(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return fallback
}
