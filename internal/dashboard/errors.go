package dashboard

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired means no usable credential was available. The login
	// redirect has already been triggered when this is returned.
	ErrAuthRequired = errors.New("authentication required")

	// ErrValidationSkipped means a custom date range was missing a bound.
	// Callers treat it as a no-op: nothing is requested and nothing is shown.
	ErrValidationSkipped = errors.New("date range incomplete")
)

// ServerRejectedError is a response the data service refused: a non-2xx
// status, success=false, or a payload that does not match the expected shape.
type ServerRejectedError struct {
	Status  int
	Message string
}

func (e *ServerRejectedError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// ErrorKind classifies dashboard failures for the UI layer.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindAuthRequired
	KindTransportFailure
	KindServerRejected
	KindValidationSkipped
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuthRequired:
		return "auth_required"
	case KindTransportFailure:
		return "transport_failure"
	case KindServerRejected:
		return "server_rejected"
	case KindValidationSkipped:
		return "validation_skipped"
	}
	return "unknown"
}

// Kind classifies err. Anything that is not one of the dashboard's own
// errors came from the transport.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrAuthRequired) {
		return KindAuthRequired
	}
	if errors.Is(err, ErrValidationSkipped) {
		return KindValidationSkipped
	}
	var rejected *ServerRejectedError
	if errors.As(err, &rejected) {
		return KindServerRejected
	}
	return KindTransportFailure
}

// notifiable reports whether a load failure should be surfaced as a toast.
// Auth failures have already navigated away; skipped ranges are silent.
func notifiable(err error) bool {
	switch Kind(err) {
	case KindTransportFailure, KindServerRejected:
		return true
	}
	return false
}

// UserMessage is the text shown for a failure: the server's own wording
// when it rejected the request, the error text otherwise.
func UserMessage(err error) string {
	var rejected *ServerRejectedError
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return err.Error()
}
