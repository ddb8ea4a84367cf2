package toolmesh

import (
	"context"
	"net/http"
	"time"
)

// Envelope is the fully-formed request submitted to a Transporter. One is
// produced per call and never reused.
type Envelope struct {
	Method string
	URL    string
	Body   []byte
	Header http.Header

	// Timeout overrides the transport's ConnectTimeout for this call when
	// positive.
	Timeout time.Duration

	// RetryableStatuses overrides DefaultRetryableStatuses for this call
	// when non-empty.
	RetryableStatuses []int
}

// Response is the decoded outcome of one Envelope. Body holds the decoded
// JSON value when the response content type declares JSON, nil otherwise;
// Raw always holds the undecoded bytes.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any
	Raw        []byte
}

// Transporter delivers one Envelope to one destination. The production
// implementation is *Transport; NullTransport is a no-op stand-in for
// tests, selected explicitly via WithTransportFactory.
type Transporter interface {
	Initialize() error
	Request(ctx context.Context, env *Envelope) (*Response, error)
	Shutdown() error
	Stats() NetworkStatsSnapshot
	ResetStats()
}

// TransportFactory builds the Transporter for a destination on first use.
type TransportFactory func(destination, baseURL string) Transporter

// Middleware wraps the transport's HTTP execution for cross-cutting
// concerns such as auth headers or tracing.
type Middleware func(req *http.Request, next RoundTripper) (*http.Response, error)

// RoundTripper represents the HTTP transport interface
type RoundTripper interface {
	RoundTrip(*http.Request) (*http.Response, error)
}

// RoundTripperFunc is a helper type for middleware
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Call names one unit of a FanOut: an operation on a destination with its
// payload.
type Call struct {
	Destination string
	Operation   string
	Payload     any
}

// Result is the per-item outcome of BatchInvoke and FanOut. Exactly one of
// Value and Err is meaningful; failures are data, never propagated
// exceptions, so one item can fail without aborting its siblings.
type Result struct {
	Value any
	Err   error
}

// Ok reports whether the item succeeded.
func (r Result) Ok() bool {
	return r.Err == nil
}

// Option represents a configuration option
type Option func(*Client)

// CallOption adjusts a single Invoke.
type CallOption func(*callOptions)

type callOptions struct {
	timeout           time.Duration
	header            http.Header
	retryableStatuses []int
}

// WithCallTimeout bounds this call (including retries and backoff sleeps).
func WithCallTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = d
	}
}

// WithCallHeader attaches an opaque header to this call, e.g. credentials
// supplied by the caller.
func WithCallHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

// WithCallRetryableStatuses overrides DefaultRetryableStatuses for this call.
func WithCallRetryableStatuses(statuses ...int) CallOption {
	return func(o *callOptions) {
		o.retryableStatuses = statuses
	}
}
