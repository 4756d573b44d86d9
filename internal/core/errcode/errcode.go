// If you are AI: This file defines the on-wire error taxonomy shared between the
// driver and attached clients. Codes are stable wire values, not Go error kinds.

package errcode

import "fmt"

// Code identifies a distinct driver error condition. The numeric value
// travels in OnError responses and in the distinct error log, so values
// are fixed and never renumbered.
type Code int32

//go:generate go tool stringer -type=Code

const (
	InvalidChannel      Code = 1
	UnknownClient       Code = 2
	UnknownPublication  Code = 3
	UnknownSubscription Code = 4
	SubscriptionClosed  Code = 5
	ResourceExhausted   Code = 6
	NameUnresolvable    Code = 7
	CapacityExceeded    Code = 8
	ProtocolViolation   Code = 9
	TransportFailure    Code = 10
)

// DriverError couples a wire code with a human-readable description.
// Command handlers return it; the conductor materialises it as an
// OnError broadcast instead of terminating.
type DriverError struct {
	Code Code
	Msg  string
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New creates a DriverError with a formatted description.
func New(code Code, format string, args ...any) *DriverError {
	return &DriverError{Code: code, Msg: fmt.Sprintf(format, args...)}
}
