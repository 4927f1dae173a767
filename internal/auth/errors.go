package auth

import (
	"errors"
	"fmt"
)

// Kind classifies authentication failures into a closed set. Each operation
// documents which kinds it can produce.
type Kind int

const (
	// KindUnknown covers failures the response did not let us classify.
	KindUnknown Kind = iota
	// KindNetwork: connectivity failure (DNS, connection refused, timeouts).
	KindNetwork
	// KindProtocol: the response body could not be parsed.
	KindProtocol
	// KindServer: 5xx or otherwise unclassified non-2xx status.
	KindServer
	// KindInvalidCredentials: the service rejected the email/password pair.
	KindInvalidCredentials
	// KindRateLimited: HTTP 429.
	KindRateLimited
	// KindExpiredGrant: the device grant expired or polling timed out.
	KindExpiredGrant
	// KindAccessDenied: the user denied the device grant.
	KindAccessDenied
	// KindStorageUnavailable: the credential vault rejected the operation.
	KindStorageUnavailable
)

// String returns the kind's wire-style name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network_error"
	case KindProtocol:
		return "protocol_error"
	case KindServer:
		return "server_error"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindRateLimited:
		return "rate_limited"
	case KindExpiredGrant:
		return "expired_grant"
	case KindAccessDenied:
		return "access_denied"
	case KindStorageUnavailable:
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified authentication failure. Status is set when the
// failure derives from an HTTP response.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError creates a classified error with a formatted message.
func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from err, or KindUnknown if err is not a
// classified authentication error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
