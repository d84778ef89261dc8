package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Lifecycle callers branch on these, the HTTP layer maps
// them to statuses.
const (
	CodePermissionDenied       = "PERMISSION_DENIED"
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeInvalidState           = "INVALID_STATE"
	CodeInconsistentAssignment = "INCONSISTENT_ASSIGNMENT"
	CodeTransportFailure       = "TRANSPORT_FAILURE"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeNotFound               = "NOT_FOUND"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeConflict               = "CONFLICT"
	CodeInternalError          = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewPermissionDenied means the actor lacks a required capability.
// Non-retryable without a role change.
func NewPermissionDenied(required string) error {
	return NewDomainError(CodePermissionDenied,
		fmt.Sprintf("missing required permission %s", required),
		http.StatusForbidden,
		map[string]any{"required": required})
}

// NewInvalidTransition means the requested status change is not in the
// transition table. Indicates a stale client view.
func NewInvalidTransition(from, to string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("cannot transition from %s to %s", from, to),
		http.StatusConflict,
		map[string]any{"from": from, "to": to})
}

// NewInvalidState means the action is not allowed in the ticket's
// current status.
func NewInvalidState(message string) error {
	return NewDomainError(CodeInvalidState, message, http.StatusConflict, nil)
}

// NewInconsistentAssignment means the reassignment payload violates
// department/agent/incident-type consistency. Retryable after
// correcting the input.
func NewInconsistentAssignment(message string, details map[string]any) error {
	return NewDomainError(CodeInconsistentAssignment, message, http.StatusUnprocessableEntity, details)
}

// NewTransportFailure wraps an unreachable push or persistence
// collaborator. Transient, retryable.
func NewTransportFailure(err error) error {
	return &DomainError{
		Code:       CodeTransportFailure,
		Message:    "transport unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

func IsPermissionDenied(err error) bool       { return HasCode(err, CodePermissionDenied) }
func IsInvalidTransition(err error) bool      { return HasCode(err, CodeInvalidTransition) }
func IsInvalidState(err error) bool           { return HasCode(err, CodeInvalidState) }
func IsInconsistentAssignment(err error) bool { return HasCode(err, CodeInconsistentAssignment) }
func IsTransportFailure(err error) bool       { return HasCode(err, CodeTransportFailure) }
func IsNotFound(err error) bool               { return HasCode(err, CodeNotFound) }

// ToDomainError converts generic errors to DomainError, preserving the
// kind when one is already present.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
