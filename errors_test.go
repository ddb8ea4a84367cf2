package toolmesh

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestErrorMessageFormat(t *testing.T) {
	err := &Error{
		Type:        ErrorTypeConnection,
		Message:     "connection refused",
		RequestID:   "req-1",
		Destination: "crm",
		Operation:   "lookup",
		Attempt:     2,
		MaxRetries:  3,
	}

	msg := err.Error()
	for _, part := range []string{"Connection", "connection refused", "[req-1]", "destination=crm", "operation=lookup", "attempt 2/4"} {
		if !strings.Contains(msg, part) {
			t.Errorf("expected message to contain %q, got %q", part, msg)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := &Error{Type: ErrorTypeTimeout, Message: "timed out", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestErrorIsSentinels(t *testing.T) {
	tests := []struct {
		errType  string
		sentinel error
	}{
		{ErrorTypeTransportClosed, ErrTransportClosed},
		{ErrorTypeCircuitOpen, ErrCircuitOpen},
		{ErrorTypeDestinationNotFound, ErrDestinationNotFound},
	}

	for _, tt := range tests {
		err := &Error{Type: tt.errType, Message: "x"}
		if !errors.Is(err, tt.sentinel) {
			t.Errorf("expected %s error to match its sentinel", tt.errType)
		}
	}

	err := &Error{Type: ErrorTypeConnection, Message: "x"}
	if errors.Is(err, ErrCircuitOpen) {
		t.Error("expected connection error not to match ErrCircuitOpen")
	}
}

func TestErrorIsMatchesType(t *testing.T) {
	a := &Error{Type: ErrorTypeTimeout, Message: "first"}
	b := &Error{Type: ErrorTypeTimeout, Message: "second"}
	if !errors.Is(a, b) {
		t.Error("expected errors of the same type to match")
	}
}

func TestHasErrorTypeWalksChain(t *testing.T) {
	inner := &Error{Type: ErrorTypeTimeout, Message: "deadline"}
	middle := &Error{Type: ErrorTypeRequestFailed, Message: "exhausted", Cause: inner}
	outer := fmt.Errorf("call failed: %w", middle)

	if !HasErrorType(outer, ErrorTypeTimeout) {
		t.Error("expected to find Timeout deep in the chain")
	}
	if !HasErrorType(outer, ErrorTypeRequestFailed) {
		t.Error("expected to find RequestFailed in the chain")
	}
	if HasErrorType(outer, ErrorTypeConnection) {
		t.Error("did not expect Connection in the chain")
	}
	if HasErrorType(nil, ErrorTypeTimeout) {
		t.Error("nil error should have no type")
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&Error{Type: ErrorTypeConnection}, true},
		{&Error{Type: ErrorTypeTimeout}, true},
		{&Error{Type: ErrorTypeRequestFailed}, true},
		{&Error{Type: ErrorTypeCircuitOpen}, true},
		{&Error{Type: ErrorTypeInvocation, Cause: &Error{Type: ErrorTypeConnection}}, true},
		{&Error{Type: ErrorTypeInvocation, Cause: &Error{Type: ErrorTypeInvalidResponse}}, false},
		{&Error{Type: ErrorTypeDestinationNotFound}, false},
		{&Error{Type: ErrorTypeTransportClosed}, false},
		{&Error{Type: ErrorTypeInvalidResponse}, false},
		{errors.New("plain"), false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v): expected %v, got %v", tt.err, tt.want, got)
		}
	}
}

func TestDebugInfo(t *testing.T) {
	err := &Error{
		Type:       ErrorTypeRequestFailed,
		Message:    "status persisted",
		Method:     "POST",
		URL:        "http://localhost:9101/invoke/x",
		StatusCode: 503,
		Attempt:    4,
		MaxRetries: 3,
		Timestamp:  time.Now(),
		Duration:   120 * time.Millisecond,
	}

	info := err.DebugInfo()
	for _, part := range []string{"RequestFailed", "POST", "503", "4/4", "120ms"} {
		if !strings.Contains(info, part) {
			t.Errorf("expected debug info to contain %q, got:\n%s", part, info)
		}
	}
}

func TestNilErrorSafety(t *testing.T) {
	var err *Error
	if err.Error() != "<nil>" {
		t.Errorf("expected <nil>, got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Error("expected nil unwrap")
	}
	if err.DebugInfo() != "Error: <nil>" {
		t.Errorf("unexpected debug info: %q", err.DebugInfo())
	}
}
