package readable

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"
	ELIMIT    = "limit"
)

// Error represents an application-specific error.
type Error struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("readable error: code=%s message=%s", e.Code, e.Message)
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	var limitErr *ElementLimitError
	var statusErr *StatusError
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	} else if errors.As(err, &limitErr) {
		return ELIMIT
	} else if errors.As(err, &statusErr) {
		return statusErr.Code()
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	var limitErr *ElementLimitError
	var statusErr *StatusError
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	} else if errors.As(err, &limitErr) {
		return limitErr.Error()
	} else if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return "Internal error"
}

// ElementLimitError is returned when a document holds more elements than
// Options.MaxElemsToParse allows. It is raised before the document is mutated.
type ElementLimitError struct {
	Count int
	Limit int
}

func (e *ElementLimitError) Error() string {
	return fmt.Sprintf("Aborting parsing document; %d elements found, but maxElemsToParse is set to %d", e.Count, e.Limit)
}

// StatusError is returned by fetchers when a page answers with a status
// other than 200. 404 and 410 map to ENOTFOUND, everything else to
// EINTERNAL so it can be retried.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Code returns the application error code for the status.
func (e *StatusError) Code() string {
	switch e.StatusCode {
	case 404, 410:
		return ENOTFOUND
	}
	return EINTERNAL
}

// HTTPStatus returns the status carried by a StatusError in err's chain,
// 200 for a nil error and 0 for any other error.
func HTTPStatus(err error) int {
	var statusErr *StatusError
	switch {
	case err == nil:
		return 200
	case errors.As(err, &statusErr):
		return statusErr.StatusCode
	}
	return 0
}
