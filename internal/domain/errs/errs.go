// Package errs defines the error taxonomy shared by the portal core.
//
// Every failure returned to the UI layer is an *Error whose Error() string is
// fit for direct display. Callers branch on the kind with errors.Is against
// the sentinels below.
package errs

import "errors"

// Sentinel kinds.
var (
	// ErrDenied means the profile is denied; the session is ended.
	ErrDenied = errors.New("denied")
	// ErrPermissionDenied means a role policy check failed.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrValidation means the input or a data invariant was rejected.
	ErrValidation = errors.New("validation failed")
	// ErrBackendUnavailable means the document store, identity provider, or blob store failed.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited means the caller made too many attempts and must wait.
	ErrRateLimited = errors.New("rate limited")
)

// Error is a classified failure with a display message.
type Error struct {
	Kind error  // one of the sentinels above
	Msg  string // safe to show to the user
	Err  error  // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Is matches the kind sentinel so errors.Is(err, errs.ErrValidation) works.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// Denied builds an ErrDenied failure.
func Denied(msg string) error {
	return &Error{Kind: ErrDenied, Msg: msg}
}

// PermissionDenied builds an ErrPermissionDenied failure.
func PermissionDenied(msg string) error {
	return &Error{Kind: ErrPermissionDenied, Msg: msg}
}

// Validation builds an ErrValidation failure.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

// NotFound builds an ErrNotFound failure.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Msg: msg}
}

// RateLimited builds an ErrRateLimited failure.
func RateLimited(msg string) error {
	return &Error{Kind: ErrRateLimited, Msg: msg}
}

// Backend wraps a transport failure. The display message is generic; the cause
// stays reachable through errors.Unwrap for logging.
func Backend(msg string, cause error) error {
	if msg == "" {
		msg = "The service is temporarily unavailable. Please try again."
	}
	return &Error{Kind: ErrBackendUnavailable, Msg: msg, Err: cause}
}

// Message returns the display message for err. Unclassified errors get a
// generic retry message so internal details never reach the UI.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return "Something went wrong. Please try again."
}
