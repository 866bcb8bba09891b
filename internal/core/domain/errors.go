package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExpired means the backend rejected the access credential.
	ErrAuthExpired = errors.New("authentication expired")
	// ErrValidationRejected means the backend returned a structured domain error.
	ErrValidationRejected = errors.New("request rejected")
	// ErrTransportFailure means no response was received.
	ErrTransportFailure = errors.New("transport failure")
	// ErrNotFound means the addressed record no longer exists server-side.
	ErrNotFound = errors.New("not found")

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionEnded     = errors.New("session ended while the request was in flight")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrUnknownRecord    = errors.New("record is not held by this store")
	ErrNoRenewal        = errors.New("no renewal credential stored")
)

// TransportMessage is the user-facing text for transport failures.
const TransportMessage = "unable to reach server"

// FailureKind classifies a failed backend call.
type FailureKind int

const (
	FailureRejected FailureKind = iota + 1
	FailureNotFound
	FailureAuthExpired
	FailureTransport
)

func (k FailureKind) String() string {
	switch k {
	case FailureRejected:
		return "rejected"
	case FailureNotFound:
		return "not_found"
	case FailureAuthExpired:
		return "auth_expired"
	case FailureTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// RequestError is the failure outcome of a gateway call. Error returns the
// backend-provided message verbatim.
type RequestError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
	// Credential is the access credential the call was sent with, empty when
	// the call went out unauthenticated.
	Credential string `json:"-"`
	// Cause is the underlying transport error, if any.
	Cause error `json:"-"`
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is lets callers match the error taxonomy with errors.Is. A NotFound
// failure also matches ErrValidationRejected.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrValidationRejected:
		return e.Kind == FailureRejected || e.Kind == FailureNotFound
	case ErrNotFound:
		return e.Kind == FailureNotFound
	case ErrAuthExpired:
		return e.Kind == FailureAuthExpired
	case ErrTransportFailure:
		return e.Kind == FailureTransport
	}
	return false
}

// Rejected builds a client-side rejection, used when a draft fails
// validation before it is sent.
func Rejected(format string, args ...any) *RequestError {
	return &RequestError{Kind: FailureRejected, Message: fmt.Sprintf(format, args...)}
}

// Message extracts the user-facing message from err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	return err.Error()
}

// KindOf returns the failure kind of err, or 0 when err is not a RequestError.
func KindOf(err error) FailureKind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return 0
}
