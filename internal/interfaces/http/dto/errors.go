package dto

import "net/http"

// Error codes returned in the response envelope. Domain error codes are
// passed through unchanged so clients see the same code the service raised.

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// Validation and input error codes
const (
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "INVALID_INPUT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "INVALID_TOKEN"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
)

// Billing error codes
const (
	ErrCodeInvalidAmount        = "INVALID_AMOUNT"
	ErrCodeAllocationMismatch   = "ALLOCATION_MISMATCH"
	ErrCodeOverAllocation       = "OVER_ALLOCATION"
	ErrCodeReceivableNotFound   = "RECEIVABLE_NOT_FOUND"
	ErrCodeCrossVendorReference = "CROSS_VENDOR_REFERENCE"
	ErrCodeInvalidConfig        = "INVALID_CONFIG"
	ErrCodeVendorNotFound       = "VENDOR_NOT_FOUND"
	ErrCodeCustomerNotFound     = "CUSTOMER_NOT_FOUND"
	ErrCodeDuplicateNumber      = "DUPLICATE_NUMBER"
	ErrCodeDuplicateRequest     = "DUPLICATE_REQUEST"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Lookups -> 404 Not Found
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeReceivableNotFound: http.StatusNotFound,
	ErrCodeVendorNotFound:     http.StatusNotFound,
	ErrCodeCustomerNotFound:   http.StatusNotFound,

	// Conflicts -> 409 Conflict
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeOverAllocation:      http.StatusConflict,
	ErrCodeDuplicateNumber:     http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeInvalidAmount:        http.StatusUnprocessableEntity,
	ErrCodeAllocationMismatch:   http.StatusUnprocessableEntity,
	ErrCodeCrossVendorReference: http.StatusUnprocessableEntity,
	ErrCodeInvalidConfig:        http.StatusUnprocessableEntity,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether the code maps to a 4xx status
func IsClientError(code string) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}
