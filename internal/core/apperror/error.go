// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business outcomes (wrong password, duplicate name, protected role) are AppErrors;
// infrastructure failures are plain wrapped errors that surface as INTERNAL_ERROR.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Authentication errors (401/403/423)
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountDisabled    = "ACCOUNT_DISABLED"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodePasswordMismatch   = "PASSWORD_MISMATCH"

	// Authorization errors (403)
	CodeForbidden           = "FORBIDDEN"
	CodeSystemRoleProtected = "SYSTEM_ROLE_PROTECTED"
	CodeRoleHasUsers        = "ROLE_HAS_USERS"

	// Business rule violations (422)
	CodeBusinessRule    = "BUSINESS_RULE_VIOLATION"
	CodePageHasChildren = "PAGE_HAS_CHILDREN"
	CodeActionInUse     = "ACTION_IN_USE"
	CodeInvalidParent   = "INVALID_PARENT"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"

	// Throttling (429)
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, entity ids, etc.)
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

// Messages returns the human-readable message list carried by the error.
// Validation errors built with NewValidationList carry one entry per violated rule.
func (e *AppError) Messages() []string {
	if msgs, ok := e.Details["errors"].([]string); ok && len(msgs) > 0 {
		return msgs
	}
	return []string{e.Message}
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

// NewValidationList creates a validation error carrying every violated rule.
func NewValidationList(messages []string) *AppError {
	msg := "validation failed"
	if len(messages) == 1 {
		msg = messages[0]
	}
	return NewValidation(msg).WithDetail("errors", messages)
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

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
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

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
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

// NewTooManyRequests creates a throttling error (429)
func NewTooManyRequests() *AppError {
	return &AppError{
		Code:       CodeTooManyRequests,
		Message:    "Too many requests, please try again later",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// --- Authentication outcomes ---

// NewInvalidCredentials is returned for both unknown usernames and wrong passwords.
// The message must stay identical for the two cases.
func NewInvalidCredentials() *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    "Invalid username or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewAccountDisabled creates an error for inactive accounts.
func NewAccountDisabled() *AppError {
	return &AppError{
		Code:       CodeAccountDisabled,
		Message:    "Account is disabled",
		HTTPStatus: http.StatusForbidden,
	}
}

// NewAccountLocked creates an error for accounts inside a lockout window.
func NewAccountLocked() *AppError {
	return &AppError{
		Code:       CodeAccountLocked,
		Message:    "Account is temporarily locked, please try again later",
		HTTPStatus: http.StatusLocked,
	}
}

// NewInvalidToken creates an error for unknown or mismatched one-time tokens.
func NewInvalidToken() *AppError {
	return &AppError{
		Code:       CodeInvalidToken,
		Message:    "Invalid or expired token",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewTokenExpired creates an error for tokens past their expiry.
func NewTokenExpired() *AppError {
	return &AppError{
		Code:       CodeTokenExpired,
		Message:    "Token has expired",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewPasswordMismatch creates an error when a password and its confirmation differ,
// or when the current password supplied for a change does not verify.
func NewPasswordMismatch() *AppError {
	return &AppError{
		Code:       CodePasswordMismatch,
		Message:    "Passwords do not match",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewSystemRoleProtected is returned on any structural change to a system role.
func NewSystemRoleProtected(roleID any) *AppError {
	return &AppError{
		Code:       CodeSystemRoleProtected,
		Message:    "System roles cannot be modified",
		HTTPStatus: http.StatusForbidden,
		Details:    map[string]any{"role_id": roleID},
	}
}

// NewRoleHasUsers is returned when deleting a role that is still assigned.
func NewRoleHasUsers(roleID any) *AppError {
	return &AppError{
		Code:       CodeRoleHasUsers,
		Message:    "Cannot delete a role that is assigned to users",
		HTTPStatus: http.StatusForbidden,
		Details:    map[string]any{"role_id": roleID},
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

// IsCode reports whether err carries the given AppError code.
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
