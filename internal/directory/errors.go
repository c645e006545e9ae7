package directory

import (
	"errors"
	"fmt"
)

// ConnectKind says why a session could not be opened.
type ConnectKind string

const (
	// ConnectUnreachable means the pre-flight TCP check failed and no bind was tried.
	ConnectUnreachable ConnectKind = "unreachable"
	// ConnectExhausted means every bind attempt failed.
	ConnectExhausted ConnectKind = "exhausted"
)

// ConnectError is returned by Manager.Open.
type ConnectError struct {
	Kind     ConnectKind
	Address  string
	Attempts int
	Cause    error
}

func (e *ConnectError) Error() string {
	switch e.Kind {
	case ConnectUnreachable:
		return fmt.Sprintf("directory %s unreachable: %v", e.Address, e.Cause)
	default:
		return fmt.Sprintf("failed to connect to directory %s after %d attempts: %v", e.Address, e.Attempts, e.Cause)
	}
}

func (e *ConnectError) Unwrap() error { return e.Cause }

// ProtocolError is a directory-side rejection on an established session.
type ProtocolError struct {
	Op         string
	ResultCode uint16
	Message    string
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("directory %s: %s (code %d): %v", e.Op, e.Message, e.ResultCode, e.Err)
	}
	return fmt.Sprintf("directory %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// SessionLostError means the underlying connection is no longer usable.
type SessionLostError struct {
	Op  string
	Err error
}

func (e *SessionLostError) Error() string {
	return fmt.Sprintf("directory session lost during %s: %v", e.Op, e.Err)
}

func (e *SessionLostError) Unwrap() error { return e.Err }

// ErrSessionClosed is returned for operations on a closed session.
var ErrSessionClosed = errors.New("directory session closed")

// IsConnectivity reports whether err is connection-shaped: a failed open,
// a lost session, or use of a closed session.
func IsConnectivity(err error) bool {
	var ce *ConnectError
	var sl *SessionLostError
	return errors.As(err, &ce) || errors.As(err, &sl) || errors.Is(err, ErrSessionClosed)
}

// IsProtocol reports whether err is a directory-side rejection.
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}
