package toolmesh

import (
	"time"

	"github.com/toolmesh/toolmesh/internal/backoff"
)

// CompressionAlgorithm selects the request body codec.
type CompressionAlgorithm int

const (
	CompressionNone CompressionAlgorithm = iota
	CompressionGzip
)

// String returns the wire name of the algorithm.
func (a CompressionAlgorithm) String() string {
	switch a {
	case CompressionGzip:
		return "gzip"
	default:
		return "none"
	}
}

// RetryStrategy selects the retry delay algorithm. RetryNone disables
// retries entirely regardless of MaxRetries.
type RetryStrategy int

const (
	RetryNone RetryStrategy = iota
	RetryLinear
	RetryExponential
	RetryFibonacci
)

// String returns the strategy name.
func (s RetryStrategy) String() string {
	switch s {
	case RetryLinear:
		return "linear"
	case RetryExponential:
		return "exponential"
	case RetryFibonacci:
		return "fibonacci"
	default:
		return "none"
	}
}

func (s RetryStrategy) backoffStrategy() backoff.Strategy {
	switch s {
	case RetryLinear:
		return backoff.LinearStrategy{}
	case RetryExponential:
		return backoff.ExponentialStrategy{}
	case RetryFibonacci:
		return backoff.FibonacciStrategy{}
	default:
		return backoff.NoneStrategy{}
	}
}

// DefaultRetryableStatuses are the HTTP statuses retried when the caller
// does not override them.
var DefaultRetryableStatuses = []int{408, 429, 500, 502, 503, 504}

// TransportConfig parametrizes one destination's Transport. Immutable once
// the transport is constructed.
type TransportConfig struct {
	MaxConnections               int
	MaxConnectionsPerDestination int
	ConnectTimeout               time.Duration
	KeepAliveEnabled             bool
	CompressionEnabled           bool
	CompressionAlgorithm         CompressionAlgorithm
	CompressionThreshold         int
	RetryStrategy                RetryStrategy
	MaxRetries                   int
	RetryBaseDelay               time.Duration
	RetryMaxDelay                time.Duration
	DNSCacheTTL                  time.Duration
}

// DefaultTransportConfig returns the standard-mode transport parameters.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxConnections:               100,
		MaxConnectionsPerDestination: 10,
		ConnectTimeout:               30 * time.Second,
		KeepAliveEnabled:             true,
		CompressionEnabled:           true,
		CompressionAlgorithm:         CompressionGzip,
		CompressionThreshold:         1024,
		RetryStrategy:                RetryExponential,
		MaxRetries:                   3,
		RetryBaseDelay:               100 * time.Millisecond,
		RetryMaxDelay:                10 * time.Second,
		DNSCacheTTL:                  5 * time.Minute,
	}
}

// ClientConfig parametrizes one Client facade.
type ClientConfig struct {
	BatchSize                int
	MaxParallelRequests      int
	EnableResponseValidation bool
	EnableThrottling         bool
	RequestsPerSecond        float64
}

// DefaultClientConfig returns the standard-mode client parameters.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BatchSize:                10,
		MaxParallelRequests:      5,
		EnableResponseValidation: true,
		EnableThrottling:         false,
		RequestsPerSecond:        0,
	}
}
