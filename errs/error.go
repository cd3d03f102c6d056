package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Application error codes. They map onto the failure kinds the request
// layer knows how to surface: validation failures re-render the form,
// authorization failures flash and redirect, missing records 404, and
// uniqueness conflicts flash on the signup page.
const (
	ECONFLICT     = "conflict"
	EINTERNAL     = "internal"
	EINVALID      = "invalid"
	ENOTFOUND     = "not_found"
	EUNAUTHORIZED = "unauthorized"
)

// Error is an application error. Code and Message are safe to show to the
// user; anything else is not.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("craft app error: code=%s message=%s", e.Code, e.Message)
}

// Errorf builds an *Error from a code and a format string.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode returns the code of an application error, or EINTERNAL for
// any other non-nil error.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the user-facing message of an application error.
// Unexpected errors get a generic message so internals never leak.
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// ErrorStatus translates an error code into an HTTP status code.
func ErrorStatus(err error) int {
	switch ErrorCode(err) {
	case ECONFLICT:
		return http.StatusConflict
	case EINVALID:
		return http.StatusUnprocessableEntity
	case ENOTFOUND:
		return http.StatusNotFound
	case EUNAUTHORIZED:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// LogError logs an unexpected error together with the request that
// triggered it.
func LogError(r *http.Request, err error) {
	logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error(err)
}
