package toolmesh

import (
	"errors"
	"fmt"
	"time"
)

// Error type discriminators carried by *Error.
const (
	ErrorTypeConfig              = "Config"
	ErrorTypeValidation          = "Validation"
	ErrorTypeDestinationNotFound = "DestinationNotFound"
	ErrorTypeTransportInit       = "TransportInit"
	ErrorTypeTransportClosed     = "TransportClosed"
	ErrorTypeConnection          = "Connection"
	ErrorTypeTimeout             = "Timeout"
	ErrorTypeRequestFailed       = "RequestFailed"
	ErrorTypeInvalidResponse     = "InvalidResponse"
	ErrorTypeInvocation          = "Invocation"
	ErrorTypeCircuitOpen         = "CircuitOpen"
)

// Sentinel errors for common failure scenarios
var (
	// ErrTransportClosed is returned for requests issued after Shutdown.
	ErrTransportClosed = errors.New("toolmesh: transport closed")

	// ErrCircuitOpen is returned when the circuit breaker is in open state.
	ErrCircuitOpen = errors.New("toolmesh: circuit open")

	// ErrDestinationNotFound is returned when a destination name is not in the registry.
	ErrDestinationNotFound = errors.New("toolmesh: destination not found")
)

// Error is the typed error returned by every toolmesh operation. Type holds
// one of the ErrorType* discriminators; the remaining fields carry whatever
// call context was available at the failure site.
type Error struct {
	Type        string
	Message     string
	Destination string
	Operation   string
	RequestID   string
	Method      string
	URL         string
	StatusCode  int
	Attempt     int
	MaxRetries  int
	Timestamp   time.Time
	Duration    time.Duration
	Cause       error
}

// Error implements error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	if e.Destination != "" {
		msg = fmt.Sprintf("%s destination=%s", msg, e.Destination)
	}
	if e.Operation != "" {
		msg = fmt.Sprintf("%s operation=%s", msg, e.Operation)
	}
	if e.Attempt > 0 {
		msg = fmt.Sprintf("%s (attempt %d/%d)", msg, e.Attempt, e.MaxRetries+1)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Type == targetErr.Type
	}
	switch target {
	case ErrTransportClosed:
		return e.Type == ErrorTypeTransportClosed
	case ErrCircuitOpen:
		return e.Type == ErrorTypeCircuitOpen
	case ErrDestinationNotFound:
		return e.Type == ErrorTypeDestinationNotFound
	}
	return false
}

// HasErrorType reports whether err or anything it wraps is a *Error of the
// given type.
func HasErrorType(err error, errorType string) bool {
	for err != nil {
		var e *Error
		if errors.As(err, &e) {
			if e.Type == errorType {
				return true
			}
			err = e.Cause
			continue
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsTransient determines if an error represents a transient failure that
// might succeed on retry. Returns true for connection errors, timeouts,
// retryable-status exhaustion and open circuits; false for caller errors
// (unknown destination, closed transport, invalid response shape).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) {
		switch e.Type {
		case ErrorTypeConnection, ErrorTypeTimeout, ErrorTypeRequestFailed, ErrorTypeCircuitOpen:
			return true
		case ErrorTypeInvocation:
			return IsTransient(e.Cause)
		default:
			return false
		}
	}

	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *Error) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Destination != "" {
		info += fmt.Sprintf("Destination: %s\n", e.Destination)
	}
	if e.Operation != "" {
		info += fmt.Sprintf("Operation: %s\n", e.Operation)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if e.StatusCode > 0 {
		info += fmt.Sprintf("Status Code: %d\n", e.StatusCode)
	}
	if e.Attempt > 0 {
		info += fmt.Sprintf("Attempt: %d/%d\n", e.Attempt, e.MaxRetries+1)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Duration > 0 {
		info += fmt.Sprintf("Duration: %v\n", e.Duration)
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}
