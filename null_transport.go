package toolmesh

import (
	"context"
	"sync"
)

// NullTransport is the no-op Transporter implementation. It performs no
// network I/O: every Request returns the canned Response/Err and records
// the envelope for inspection. Select it explicitly via
// WithTransportFactory in tests and dry-run hosts.
type NullTransport struct {
	// Response is returned by Request when Err is nil. A nil Response
	// yields an empty 200.
	Response *Response
	// Err, when set, is returned by every Request.
	Err error

	mu        sync.Mutex
	envelopes []Envelope
	stats     NetworkStats
	closed    bool
}

// NewNullTransport creates a NullTransport answering empty 200s.
func NewNullTransport() *NullTransport {
	return &NullTransport{}
}

// Initialize implements Transporter; it does nothing.
func (n *NullTransport) Initialize() error {
	return nil
}

// Request records the envelope and returns the canned outcome.
func (n *NullTransport) Request(_ context.Context, env *Envelope) (*Response, error) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, &Error{Type: ErrorTypeTransportClosed, Message: "transport has been shut down", Cause: ErrTransportClosed}
	}
	n.envelopes = append(n.envelopes, *env)
	n.mu.Unlock()

	n.stats.recordSent(int64(len(env.Body)))
	if n.Err != nil {
		n.stats.recordFailure()
		return nil, n.Err
	}
	n.stats.recordSuccess()
	if n.Response != nil {
		return n.Response, nil
	}
	return &Response{StatusCode: 200}, nil
}

// Shutdown implements Transporter; idempotent.
func (n *NullTransport) Shutdown() error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	return nil
}

// Stats returns the recorded counters.
func (n *NullTransport) Stats() NetworkStatsSnapshot {
	return n.stats.Snapshot()
}

// ResetStats zeroes the recorded counters.
func (n *NullTransport) ResetStats() {
	n.stats.Reset()
}

// Calls returns how many envelopes were submitted.
func (n *NullTransport) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.envelopes)
}

// Envelopes returns a copy of every submitted envelope, in order.
func (n *NullTransport) Envelopes() []Envelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Envelope, len(n.envelopes))
	copy(out, n.envelopes)
	return out
}
