package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Starship error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"           // 404
	ErrConflict        ErrorCode = "CONFLICT"            // 409
	ErrNoActiveCourse  ErrorCode = "NO_ACTIVE_COURSE"    // 412
	ErrNoActiveSession ErrorCode = "NO_ACTIVE_SESSION"   // 412
	ErrNoActiveMission ErrorCode = "NO_ACTIVE_MISSION"   // 412
	ErrRegistration    ErrorCode = "REGISTRATION_ERROR"  // 422
	ErrConfiguration   ErrorCode = "CONFIGURATION_ERROR" // 500
	ErrPersistence     ErrorCode = "PERSISTENCE_ERROR"   // 500
	ErrInternal        ErrorCode = "INTERNAL"            // 500
)

// StarshipError represents a structured error with code, status, and details.
type StarshipError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *StarshipError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *StarshipError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StarshipError {
	return &StarshipError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error. kind names what was looked up
// ("flight config", "mission", ...).
func NewNotFound(kind, identifier string) *StarshipError {
	return &StarshipError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *StarshipError {
	return &StarshipError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewNoActiveCourse creates a 412 error when a tool needs a plotted course.
func NewNoActiveCourse() *StarshipError {
	return &StarshipError{
		Code:    ErrNoActiveCourse,
		Status:  412,
		Message: "no active course; call plot_course first",
		Details: map[string]any{"remediation": "plot_course"},
	}
}

// NewNoActiveSession creates a 412 error when no STARLOG session is open.
func NewNoActiveSession(project string) *StarshipError {
	return &StarshipError{
		Code:    ErrNoActiveSession,
		Status:  412,
		Message: fmt.Sprintf("no active session for project %q; call start_session first", project),
		Details: map[string]any{"project": project, "remediation": "start_session"},
	}
}

// NewNoActiveMission creates a 412 error when the course carries no mission id.
func NewNoActiveMission() *StarshipError {
	return &StarshipError{
		Code:    ErrNoActiveMission,
		Status:  412,
		Message: "no active mission; call plot_course to start one",
		Details: map[string]any{"remediation": "plot_course"},
	}
}

// NewRegistration creates a 422 error when the flight config registry rejects a name.
func NewRegistration(name, reason string) *StarshipError {
	return &StarshipError{
		Code:    ErrRegistration,
		Status:  422,
		Message: fmt.Sprintf("flight config %q rejected: %s", name, reason),
		Details: map[string]any{"name": name, "reason": reason},
	}
}

// NewConfiguration creates a 500 error for missing or invalid configuration.
func NewConfiguration(msg string) *StarshipError {
	return &StarshipError{
		Code:    ErrConfiguration,
		Status:  500,
		Message: msg,
	}
}

// NewPersistence creates a 500 error for JSON state I/O failures.
func NewPersistence(op string, err error) *StarshipError {
	msg := op
	if err != nil {
		msg = fmt.Sprintf("%s: %v", op, err)
	}
	return &StarshipError{
		Code:    ErrPersistence,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StarshipError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StarshipError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a StarshipError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *StarshipError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns the StarshipError in err's chain, if any.
func As(err error) (*StarshipError, bool) {
	var sErr *StarshipError
	ok := stderrors.As(err, &sErr)
	return sErr, ok
}

// Wrap returns err unchanged if it already carries a StarshipError,
// otherwise a PERSISTENCE_ERROR describing op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return NewPersistence(op, err)
}
