// Package cmiserr defines the typed protocol error taxonomy and the mapping
// from HTTP status codes and wire error envelopes onto it.
package cmiserr

import (
	"errors"
	"fmt"
)

// Kind is a stable identifier for one error class of the closed taxonomy.
// The values match the wire exception names where one exists.
type Kind string

const (
	KindInvalidArgument         Kind = "invalidArgument"
	KindUnauthorized            Kind = "unauthorized"
	KindPermissionDenied        Kind = "permissionDenied"
	KindObjectNotFound          Kind = "objectNotFound"
	KindNotSupported            Kind = "notSupported"
	KindProxyAuthentication     Kind = "proxyAuthentication"
	KindConstraint              Kind = "constraint"
	KindTooManyRequests         Kind = "tooManyRequests"
	KindServiceUnavailable      Kind = "serviceUnavailable"
	KindConnection              Kind = "connection"
	KindStorage                 Kind = "storage"
	KindStreamNotSupported      Kind = "streamNotSupported"
	KindContentAlreadyExists    Kind = "contentAlreadyExists"
	KindFilterNotValid          Kind = "filterNotValid"
	KindNameConstraintViolation Kind = "nameConstraintViolation"
	KindUpdateConflict          Kind = "updateConflict"
	KindVersioning              Kind = "versioning"
	KindRuntime                 Kind = "runtime"
)

// Error is a typed protocol error. It carries the HTTP status that produced
// it (0 for purely client-side failures), the server message, the raw error
// body and any additional diagnostic key/values from the error envelope.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Content string
	Extra   map[string]any
	Cause   error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0 && e.Cause != nil:
		return fmt.Sprintf("%s: %s (HTTP %d): %v", e.Kind, e.Message, e.Status, e.Cause)
	case e.Status > 0:
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Kind, e.Message, e.Status)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an error without an HTTP status.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Connection wraps a transport or parse failure. These are distinct from
// protocol-level errors: the exchange itself broke.
func Connection(message string, cause error) *Error {
	return &Error{Kind: KindConnection, Message: message, Cause: cause}
}

// KindOf returns the kind of err when it is (or wraps) an *Error, else "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
