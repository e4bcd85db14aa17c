// internal/masterdata/errors.go
//
// Error taxonomy for document creation.
//
// Context
//   Callers need to tell three failures apart: a bad call that never reached
//   the network, a store that answered with a non-success status, and a
//   transport that produced no response at all.  Each has a typed error for
//   errors.As and a sentinel for errors.Is.
//
//------------------------------------------------------------------------------

package masterdata

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below.
var (
	ErrInvalidArgument = errors.New("masterdata: invalid argument")
	ErrRemoteRejected  = errors.New("masterdata: remote rejected")
	ErrTransport       = errors.New("masterdata: transport failure")
)

// InvalidArgumentError is returned before any I/O when entity or payload is
// missing.
type InvalidArgumentError struct {
	Param string // "entity" or "payload"
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("masterdata: parameter %s is undefined", e.Param)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// RemoteRejectedError reports a non-2xx answer from the document store.
type RemoteRejectedError struct {
	StatusCode int
	StatusText string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("masterdata: %d - %s", e.StatusCode, e.StatusText)
}

func (e *RemoteRejectedError) Is(target error) bool { return target == ErrRemoteRejected }

// TransportError wraps a failure that produced no HTTP response (DNS,
// connection refused, context cancellation, and the like).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "masterdata: transport: " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DecodeError reports a 2xx response whose body is not a DocumentRef.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "masterdata: decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status carried by a RemoteRejectedError
// anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var rr *RemoteRejectedError
	if errors.As(err, &rr) {
		return rr.StatusCode, true
	}
	return 0, false
}
