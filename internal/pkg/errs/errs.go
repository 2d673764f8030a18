package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chatrelay/internal/pkg/logx"
)

// Kind groups error codes by how the failure should be treated by callers.
type Kind string

const (
	// KindValidation marks malformed or missing input, e.g. an empty username.
	KindValidation Kind = "validation"

	// KindConflict marks a request that collides with existing state, e.g. a taken username.
	KindConflict Kind = "conflict"

	// KindContentRejected marks content refused by the content filter.
	KindContentRejected Kind = "content_rejected"

	// KindInternal marks server-side failures.
	KindInternal Kind = "internal"
)

// CustomError is the error type used throughout the application.
// It carries a business code, a kind, a user-facing message and the HTTP status
// used when the error ends an HTTP request.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Kind classifies the error.
	Kind Kind

	// Message is the user-facing error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (%s): %s", e.Code, e.Kind, e.Message)
}

// NewError builds a *CustomError from a predefined code. details are used as
// printf arguments when the message template has placeholders. Unknown codes
// fall back to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code)
		}
	}

	return &customErr
}

// As extracts a *CustomError from err's chain.
func As(err error) (*CustomError, bool) {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr, true
	}
	return nil, false
}

// Is reports whether err carries the given business code.
func Is(err error, code int) bool {
	customErr, ok := As(err)
	return ok && customErr.Code == code
}

// IsKind reports whether err is a CustomError of the given kind.
func IsKind(err error, kind Kind) bool {
	customErr, ok := As(err)
	return ok && customErr.Kind == kind
}
