// Package errors defines the categorized error taxonomy shared by the
// services and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryValidation represents malformed or missing input (400)
	CategoryValidation ErrorCategory = "validation"
	// CategoryConflict represents a uniqueness conflict (409)
	CategoryConflict ErrorCategory = "conflict"
	// CategoryAuthorization represents credential errors (401/403)
	CategoryAuthorization ErrorCategory = "authorization"
	// CategoryNotFound represents not found errors (404)
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryBusinessRule represents booth and claim policy rejections
	CategoryBusinessRule ErrorCategory = "business_rule"
	// CategoryConfiguration represents missing server configuration
	CategoryConfiguration ErrorCategory = "configuration"
	// CategoryUpstream represents algod and indexer failures
	CategoryUpstream ErrorCategory = "upstream"
	// CategoryDatabase represents datastore failures
	CategoryDatabase ErrorCategory = "database"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
	// CategorySystem represents any other server-side error
	CategorySystem ErrorCategory = "system"
)

// Error codes surfaced to clients.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeConflict        = "CONFLICT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeBoothPaused     = "BOOTH_PAUSED"
	CodeBoothFull       = "BOOTH_FULL"
	CodeAlreadyClaimed  = "ALREADY_CLAIMED"
	CodeMisconfigured   = "MISCONFIGURED"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	CodeDatabase        = "DATABASE_ERROR"
	CodeRateLimit       = "RATE_LIMIT_EXCEEDED"
	CodeInternal        = "INTERNAL_ERROR"
)

// CategorizedError represents an error with category and HTTP status code.
// Details are safe to return to clients; Cause never is.
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// Is matches another CategorizedError by code, so errors.Is(err, ErrAlreadyClaimed) works.
func (e *CategorizedError) Is(target error) bool {
	var t *CategorizedError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrAlreadyClaimed = &CategorizedError{Code: CodeAlreadyClaimed}
	ErrConflict       = &CategorizedError{Code: CodeConflict}
	ErrNotFound       = &CategorizedError{Code: CodeNotFound}
	ErrBoothPaused    = &CategorizedError{Code: CodeBoothPaused}
	ErrBoothFull      = &CategorizedError{Code: CodeBoothFull}
	ErrValidation     = &CategorizedError{Code: CodeValidation}
)

// Client errors (4xx)

// NewValidationError creates a validation error
func NewValidationError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeValidation,
		Message:    message,
	}
}

// NewInvalidEnumError creates a validation error that enumerates the accepted values.
func NewInvalidEnumError(field string, valid []string) *CategorizedError {
	err := NewValidationError(fmt.Sprintf("Invalid %s. Must be one of: %s", field, strings.Join(valid, ", ")))
	err.Details = map[string]interface{}{
		"valid": valid,
	}
	return err
}

// NewConflictError creates a conflict error carrying the existing record
// under the given key so the caller can return it alongside the error.
func NewConflictError(message, key string, existing interface{}) *CategorizedError {
	err := &CategorizedError{
		Category:   CategoryConflict,
		StatusCode: http.StatusConflict,
		Code:       CodeConflict,
		Message:    message,
	}
	if key != "" && existing != nil {
		err.Details = map[string]interface{}{key: existing}
	}
	return err
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthorization,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeUnauthorized,
		Message:    message,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAuthorization,
		StatusCode: http.StatusForbidden,
		Code:       CodeForbidden,
		Message:    message,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
		Message:    message,
	}
}

// NewBoothPausedError creates the error returned when the booth is not accepting requests
func NewBoothPausedError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryBusinessRule,
		StatusCode: http.StatusForbidden,
		Code:       CodeBoothPaused,
		Message:    "Print booth is currently paused",
	}
}

// NewBoothFullError creates the error returned when the print queue is at capacity
func NewBoothFullError(limit int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryBusinessRule,
		StatusCode: http.StatusForbidden,
		Code:       CodeBoothFull,
		Message:    "Print booth has reached its maximum number of print requests",
		Details: map[string]interface{}{
			"max_print_requests": limit,
		},
	}
}

// NewAlreadyClaimedError creates the error returned when a wallet already used its free mint
func NewAlreadyClaimedError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryBusinessRule,
		StatusCode: http.StatusBadRequest,
		Code:       CodeAlreadyClaimed,
		Message:    "Free mint already claimed",
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError() *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeRateLimit,
		Message:    "Rate limit exceeded. Please try again later.",
	}
}

// Server errors (5xx)

// NewMisconfiguredError creates an error for missing server configuration
func NewMisconfiguredError(message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryConfiguration,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeMisconfigured,
		Message:    message,
	}
}

// NewUpstreamError creates an algod/indexer failure error
func NewUpstreamError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeUpstream,
		Message:    fmt.Sprintf("upstream error during %s", operation),
		Cause:      cause,
	}
}

// NewUpstreamTimeoutError creates an error for a bounded wait that ran out
func NewUpstreamTimeoutError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUpstream,
		StatusCode: http.StatusGatewayTimeout,
		Code:       CodeUpstreamTimeout,
		Message:    fmt.Sprintf("timed out waiting for %s", operation),
		Cause:      cause,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeDatabase,
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr
	}

	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil && catErr.StatusCode != 0 {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show to clients. Server-side
// failures collapse to a generic message so causes never leak.
func PublicMessage(err error) string {
	catErr := Categorize(err)
	if catErr == nil {
		return ""
	}
	switch catErr.Category {
	case CategoryUpstream, CategoryDatabase, CategorySystem:
		if catErr.Code == CodeUpstreamTimeout {
			return catErr.Message
		}
		return "Internal server error"
	default:
		return catErr.Message
	}
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	status := GetHTTPStatusCode(err)
	return status >= 400 && status < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	return GetHTTPStatusCode(err) >= 500
}
