package route

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes routing errors.
type ErrorCode string

const (
	// ErrCodeNoMatch indicates no registered pattern matched the path.
	ErrCodeNoMatch ErrorCode = "NO_MATCH"

	// ErrCodeUnsupportedPrefix indicates the URL carries neither the app
	// scheme nor a known alternate prefix.
	ErrCodeUnsupportedPrefix ErrorCode = "UNSUPPORTED_PREFIX"

	// ErrCodeInvalidParams indicates the route validator rejected the parameters.
	ErrCodeInvalidParams ErrorCode = "INVALID_PARAMS"

	// ErrCodeRouteNotFound indicates a lookup by name failed.
	ErrCodeRouteNotFound ErrorCode = "ROUTE_NOT_FOUND"

	// ErrCodeMissingPathParam indicates a path token had no usable value.
	ErrCodeMissingPathParam ErrorCode = "MISSING_PATH_PARAM"

	// ErrCodeDuplicateRoute indicates a route name was registered twice.
	ErrCodeDuplicateRoute ErrorCode = "DUPLICATE_ROUTE"

	// ErrCodeInvalidPattern indicates a malformed path pattern.
	ErrCodeInvalidPattern ErrorCode = "INVALID_PATTERN"

	// ErrCodeTableFrozen indicates a registration after Freeze.
	ErrCodeTableFrozen ErrorCode = "TABLE_FROZEN"
)

// Error is a routing error with a code and the route it concerns.
type Error struct {
	Code    ErrorCode
	Route   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Route != "" {
		return fmt.Sprintf("%s: %s (route=%s)", e.Code, e.Message, e.Route)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, routeName, format string, args ...any) *Error {
	return &Error{Code: code, Route: routeName, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of a routing error, or "" for other errors.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsGenerationError reports whether err came from link generation.
func IsGenerationError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeRouteNotFound, ErrCodeInvalidParams, ErrCodeMissingPathParam:
		return true
	}
	return false
}

// IsRegistrationError reports whether err came from building the table.
func IsRegistrationError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeDuplicateRoute, ErrCodeInvalidPattern, ErrCodeTableFrozen:
		return true
	}
	return false
}
