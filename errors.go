package uploadkit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobeaver/uploadkit/filevalidator"
)

// Error categories. Every failure returned by Ingest or FetchAsFile wraps
// exactly one of these, so callers can branch with errors.Is.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrTooLarge      = errors.New("resource too large")
	ErrTooManyFiles  = errors.New("too many files")
	ErrForbiddenHost = errors.New("forbidden host")
	ErrFetch         = errors.New("fetch failed")
	ErrValidation    = errors.New("validation failed")
)

// Error records a rejected upload or fetch together with the operation
// that produced it.
type Error struct {
	// Op is the operation that failed ("ingest", "fetch", "resolve", ...).
	Op string

	// Kind is one of the Err* category sentinels.
	Kind error

	// Message is safe to show to the client that submitted the request.
	Message string

	// Limit is the configured ceiling for ErrTooLarge (bytes) and
	// ErrTooManyFiles (count). Zero otherwise.
	Limit int64

	// StatusCode is the remote HTTP status for ErrFetch, when one was received.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil && e.Err.Error() != e.Message {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the category and the cause to errors.Is/As
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// PublicMessage returns the client-safe message of an *Error, or a generic
// text for anything else.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "upload failed"
}

func invalidInput(op, message string, cause error) *Error {
	return &Error{Op: op, Kind: ErrInvalidInput, Message: message, Err: cause}
}

// tooLarge builds the size-ceiling failure shared by multipart parts and
// remote fetches.
func tooLarge(op string, limit int64, cause error) *Error {
	return &Error{
		Op:      op,
		Kind:    ErrTooLarge,
		Message: fmt.Sprintf("file exceeds maximum allowed size of %s", formatLimit(limit)),
		Limit:   limit,
		Err:     cause,
	}
}

func tooManyFiles(op string, limit int) *Error {
	noun := "files"
	if limit == 1 {
		noun = "file"
	}
	return &Error{
		Op:      op,
		Kind:    ErrTooManyFiles,
		Message: fmt.Sprintf("maximum %d %s allowed", limit, noun),
		Limit:   int64(limit),
	}
}

func forbiddenHost(op string) *Error {
	return &Error{Op: op, Kind: ErrForbiddenHost, Message: "image URL points to a forbidden host"}
}

func fetchFailed(op, message string, status int, cause error) *Error {
	return &Error{Op: op, Kind: ErrFetch, Message: message, StatusCode: status, Err: cause}
}

func validationFailed(op string, cause error) *Error {
	return &Error{Op: op, Kind: ErrValidation, Message: cause.Error(), Err: cause}
}

func formatLimit(limit int64) string {
	return filevalidator.FormatMegabytes(limit)
}
