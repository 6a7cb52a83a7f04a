package handle

import (
	"errors"
	"fmt"

	"github.com/adamwoolhether/fetcher/engine"
)

var (
	// ErrTimeout is wrapped by [TransferError] when the engine timed out.
	ErrTimeout = errors.New("transfer timed out")
	// ErrNotFound is wrapped by [TransferError] when the server answered 404.
	ErrNotFound = errors.New("resource not found")
	// ErrTransfer is wrapped by [TransferError] for every other failure.
	ErrTransfer = errors.New("transfer failed")

	// ErrClosed is returned when a closed Handle is used.
	ErrClosed = errors.New("handle is closed")
	// ErrInFlight is returned when a Handle is used while a fetch is running.
	ErrInFlight = errors.New("fetch already in flight")
)

// TransferError describes a failed fetch. HTTPCode is the last status the
// server sent, or 0 if none was received.
type TransferError struct {
	URL      string
	HTTPCode int
	Code     engine.Code
	Message  string
	Err      error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%v: %s, response code: %d, engine code: %d, message: %s", e.Err, e.URL, e.HTTPCode, int(e.Code), e.Message)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// State is the lifecycle position of a [Handle].
type State int

const (
	StateConfigured State = iota
	StateInFlight
	StateSucceeded
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConfigured:
		return "configured"
	case StateInFlight:
		return "in-flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
