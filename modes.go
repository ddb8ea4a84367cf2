package toolmesh

import (
	"strings"
	"time"
)

// OperatingMode is a named bundle of transport and client parameters.
// Modes are a closed enum so an invalid mode is a construction-time
// concern, not a runtime string lookup.
type OperatingMode int

const (
	// ModeStandard balances latency and resilience: gzip compression,
	// exponential backoff with 3 retries, 5 parallel requests, response
	// validation on.
	ModeStandard OperatingMode = iota

	// ModeHighThroughput favors volume: linear backoff with 2 retries,
	// 10 parallel requests, larger batches, validation off.
	ModeHighThroughput

	// ModeLowLatency favors speed: compression off, no retries,
	// validation on.
	ModeLowLatency

	// ModeResilient favors delivery: exponential backoff with a longer
	// base delay and 5 retries, 3 parallel requests, circuit breaker on.
	ModeResilient
)

// String returns the mode's configuration name.
func (m OperatingMode) String() string {
	switch m {
	case ModeHighThroughput:
		return "high_throughput"
	case ModeLowLatency:
		return "low_latency"
	case ModeResilient:
		return "resilient"
	default:
		return "standard"
	}
}

// ParseOperatingMode maps a configuration name to a mode. The second return
// is false for unknown names, in which case ModeStandard is returned as the
// fallback; WithModeName logs the warning the contract requires.
func ParseOperatingMode(name string) (OperatingMode, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "standard", "":
		return ModeStandard, true
	case "high_throughput", "high-throughput":
		return ModeHighThroughput, true
	case "low_latency", "low-latency":
		return ModeLowLatency, true
	case "resilient":
		return ModeResilient, true
	default:
		return ModeStandard, false
	}
}

func (m OperatingMode) transportConfig() TransportConfig {
	cfg := DefaultTransportConfig()
	switch m {
	case ModeHighThroughput:
		cfg.MaxConnections = 200
		cfg.MaxConnectionsPerDestination = 20
		cfg.RetryStrategy = RetryLinear
		cfg.MaxRetries = 2
	case ModeLowLatency:
		cfg.CompressionEnabled = false
		cfg.CompressionAlgorithm = CompressionNone
		cfg.RetryStrategy = RetryNone
		cfg.MaxRetries = 0
		cfg.ConnectTimeout = 10 * time.Second
	case ModeResilient:
		cfg.MaxRetries = 5
		cfg.RetryBaseDelay = 500 * time.Millisecond
		cfg.RetryMaxDelay = 30 * time.Second
	}
	return cfg
}

func (m OperatingMode) clientConfig() ClientConfig {
	cfg := DefaultClientConfig()
	switch m {
	case ModeHighThroughput:
		cfg.MaxParallelRequests = 10
		cfg.BatchSize = 25
		cfg.EnableResponseValidation = false
	case ModeLowLatency:
		cfg.MaxParallelRequests = 5
	case ModeResilient:
		cfg.MaxParallelRequests = 3
		cfg.BatchSize = 5
	}
	return cfg
}

// breakerConfig returns a circuit breaker config for modes that enable one,
// nil otherwise.
func (m OperatingMode) breakerConfig() *CircuitBreakerConfig {
	if m != ModeResilient {
		return nil
	}
	return &CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	}
}
