package toolmesh

import (
	"sync/atomic"
)

// NetworkStats tracks transfer-level counters for one Transport. All fields
// are updated with atomic increments by the owning transport's request path;
// no cross-field invariant exists, so no lock is held. Read via Snapshot.
type NetworkStats struct {
	bytesSent         int64
	bytesReceived     int64
	requestsSent      int64
	requestsSucceeded int64
	requestsFailed    int64
	retriedRequests   int64
	connectionErrors  int64
	timeoutErrors     int64

	latencyMicrosTotal int64
	latencySamples     int64

	uncompressedBytes int64
	compressedBytes   int64
}

// NetworkStatsSnapshot is a point-in-time copy of NetworkStats with the
// derived running averages resolved.
type NetworkStatsSnapshot struct {
	BytesSent         int64
	BytesReceived     int64
	RequestsSent      int64
	RequestsSucceeded int64
	RequestsFailed    int64
	RetriedRequests   int64
	ConnectionErrors  int64
	TimeoutErrors     int64
	AvgLatencyMs      float64
	CompressionRatio  float64
}

func (s *NetworkStats) recordSent(bytes int64) {
	atomic.AddInt64(&s.requestsSent, 1)
	atomic.AddInt64(&s.bytesSent, bytes)
}

func (s *NetworkStats) recordAttemptBytes(bytes int64) {
	atomic.AddInt64(&s.bytesSent, bytes)
}

func (s *NetworkStats) recordReceived(bytes int64) {
	atomic.AddInt64(&s.bytesReceived, bytes)
}

func (s *NetworkStats) recordSuccess() {
	atomic.AddInt64(&s.requestsSucceeded, 1)
}

func (s *NetworkStats) recordFailure() {
	atomic.AddInt64(&s.requestsFailed, 1)
}

func (s *NetworkStats) recordRetry() {
	atomic.AddInt64(&s.retriedRequests, 1)
}

func (s *NetworkStats) recordConnectionError() {
	atomic.AddInt64(&s.connectionErrors, 1)
}

func (s *NetworkStats) recordTimeoutError() {
	atomic.AddInt64(&s.timeoutErrors, 1)
}

func (s *NetworkStats) recordLatencyMicros(micros int64) {
	atomic.AddInt64(&s.latencyMicrosTotal, micros)
	atomic.AddInt64(&s.latencySamples, 1)
}

func (s *NetworkStats) recordCompression(uncompressed, compressed int64) {
	atomic.AddInt64(&s.uncompressedBytes, uncompressed)
	atomic.AddInt64(&s.compressedBytes, compressed)
}

// Snapshot returns a consistent-enough copy for monitoring; counters are
// read individually, which is fine since no invariant spans them.
func (s *NetworkStats) Snapshot() NetworkStatsSnapshot {
	snap := NetworkStatsSnapshot{
		BytesSent:         atomic.LoadInt64(&s.bytesSent),
		BytesReceived:     atomic.LoadInt64(&s.bytesReceived),
		RequestsSent:      atomic.LoadInt64(&s.requestsSent),
		RequestsSucceeded: atomic.LoadInt64(&s.requestsSucceeded),
		RequestsFailed:    atomic.LoadInt64(&s.requestsFailed),
		RetriedRequests:   atomic.LoadInt64(&s.retriedRequests),
		ConnectionErrors:  atomic.LoadInt64(&s.connectionErrors),
		TimeoutErrors:     atomic.LoadInt64(&s.timeoutErrors),
	}

	if samples := atomic.LoadInt64(&s.latencySamples); samples > 0 {
		snap.AvgLatencyMs = float64(atomic.LoadInt64(&s.latencyMicrosTotal)) / float64(samples) / 1000
	}
	if compressed := atomic.LoadInt64(&s.compressedBytes); compressed > 0 {
		snap.CompressionRatio = float64(atomic.LoadInt64(&s.uncompressedBytes)) / float64(compressed)
	}
	return snap
}

// Reset zeroes every counter.
func (s *NetworkStats) Reset() {
	atomic.StoreInt64(&s.bytesSent, 0)
	atomic.StoreInt64(&s.bytesReceived, 0)
	atomic.StoreInt64(&s.requestsSent, 0)
	atomic.StoreInt64(&s.requestsSucceeded, 0)
	atomic.StoreInt64(&s.requestsFailed, 0)
	atomic.StoreInt64(&s.retriedRequests, 0)
	atomic.StoreInt64(&s.connectionErrors, 0)
	atomic.StoreInt64(&s.timeoutErrors, 0)
	atomic.StoreInt64(&s.latencyMicrosTotal, 0)
	atomic.StoreInt64(&s.latencySamples, 0)
	atomic.StoreInt64(&s.uncompressedBytes, 0)
	atomic.StoreInt64(&s.compressedBytes, 0)
}

// ClientStats tracks aggregate call counters for one Client. Same update
// discipline as NetworkStats.
type ClientStats struct {
	requestsSent      int64
	requestsSucceeded int64
	requestsFailed    int64
	latencyMicros     int64
}

// ClientStatsSnapshot is a point-in-time copy of ClientStats.
type ClientStatsSnapshot struct {
	RequestsSent      int64
	RequestsSucceeded int64
	RequestsFailed    int64
	TotalLatencyMs    float64
}

func (s *ClientStats) recordSent() {
	atomic.AddInt64(&s.requestsSent, 1)
}

func (s *ClientStats) recordSuccess(latencyMicros int64) {
	atomic.AddInt64(&s.requestsSucceeded, 1)
	atomic.AddInt64(&s.latencyMicros, latencyMicros)
}

func (s *ClientStats) recordFailure(latencyMicros int64) {
	atomic.AddInt64(&s.requestsFailed, 1)
	atomic.AddInt64(&s.latencyMicros, latencyMicros)
}

// Snapshot returns a copy of the counters.
func (s *ClientStats) Snapshot() ClientStatsSnapshot {
	return ClientStatsSnapshot{
		RequestsSent:      atomic.LoadInt64(&s.requestsSent),
		RequestsSucceeded: atomic.LoadInt64(&s.requestsSucceeded),
		RequestsFailed:    atomic.LoadInt64(&s.requestsFailed),
		TotalLatencyMs:    float64(atomic.LoadInt64(&s.latencyMicros)) / 1000,
	}
}

// Reset zeroes every counter.
func (s *ClientStats) Reset() {
	atomic.StoreInt64(&s.requestsSent, 0)
	atomic.StoreInt64(&s.requestsSucceeded, 0)
	atomic.StoreInt64(&s.requestsFailed, 0)
	atomic.StoreInt64(&s.latencyMicros, 0)
}
