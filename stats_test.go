package toolmesh

import (
	"sync"
	"testing"
)

func TestNetworkStatsSnapshot(t *testing.T) {
	stats := &NetworkStats{}

	stats.recordSent(100)
	stats.recordSent(50)
	stats.recordReceived(300)
	stats.recordSuccess()
	stats.recordFailure()
	stats.recordRetry()
	stats.recordRetry()
	stats.recordConnectionError()
	stats.recordTimeoutError()
	stats.recordLatencyMicros(2000)
	stats.recordLatencyMicros(4000)
	stats.recordCompression(1000, 250)

	snap := stats.Snapshot()
	if snap.BytesSent != 150 {
		t.Errorf("expected 150 bytes sent, got %d", snap.BytesSent)
	}
	if snap.BytesReceived != 300 {
		t.Errorf("expected 300 bytes received, got %d", snap.BytesReceived)
	}
	if snap.RequestsSent != 2 {
		t.Errorf("expected 2 requests sent, got %d", snap.RequestsSent)
	}
	if snap.RequestsSucceeded != 1 || snap.RequestsFailed != 1 {
		t.Errorf("expected 1/1 success/failure, got %d/%d", snap.RequestsSucceeded, snap.RequestsFailed)
	}
	if snap.RetriedRequests != 2 {
		t.Errorf("expected 2 retries, got %d", snap.RetriedRequests)
	}
	if snap.ConnectionErrors != 1 || snap.TimeoutErrors != 1 {
		t.Errorf("expected 1/1 connection/timeout errors, got %d/%d", snap.ConnectionErrors, snap.TimeoutErrors)
	}
	if snap.AvgLatencyMs != 3 {
		t.Errorf("expected 3ms average latency, got %f", snap.AvgLatencyMs)
	}
	if snap.CompressionRatio != 4 {
		t.Errorf("expected compression ratio 4, got %f", snap.CompressionRatio)
	}
}

func TestNetworkStatsZeroDerived(t *testing.T) {
	snap := (&NetworkStats{}).Snapshot()
	if snap.AvgLatencyMs != 0 {
		t.Errorf("expected 0 average latency with no samples, got %f", snap.AvgLatencyMs)
	}
	if snap.CompressionRatio != 0 {
		t.Errorf("expected 0 compression ratio with no compression, got %f", snap.CompressionRatio)
	}
}

func TestNetworkStatsReset(t *testing.T) {
	stats := &NetworkStats{}
	stats.recordSent(100)
	stats.recordSuccess()
	stats.recordLatencyMicros(5000)
	stats.Reset()

	snap := stats.Snapshot()
	if snap.RequestsSent != 0 || snap.BytesSent != 0 || snap.AvgLatencyMs != 0 {
		t.Errorf("expected zeroed snapshot, got %+v", snap)
	}
}

func TestNetworkStatsConcurrent(t *testing.T) {
	stats := &NetworkStats{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				stats.recordSent(10)
				stats.recordSuccess()
			}
		}()
	}
	wg.Wait()

	snap := stats.Snapshot()
	if snap.RequestsSent != 5000 {
		t.Errorf("expected 5000 requests, got %d", snap.RequestsSent)
	}
	if snap.BytesSent != 50000 {
		t.Errorf("expected 50000 bytes, got %d", snap.BytesSent)
	}
}

func TestClientStatsSnapshotAndReset(t *testing.T) {
	stats := &ClientStats{}
	stats.recordSent()
	stats.recordSent()
	stats.recordSuccess(1500)
	stats.recordFailure(500)

	snap := stats.Snapshot()
	if snap.RequestsSent != 2 {
		t.Errorf("expected 2 sent, got %d", snap.RequestsSent)
	}
	if snap.RequestsSucceeded != 1 || snap.RequestsFailed != 1 {
		t.Errorf("expected 1/1, got %d/%d", snap.RequestsSucceeded, snap.RequestsFailed)
	}
	if snap.TotalLatencyMs != 2 {
		t.Errorf("expected 2ms total latency, got %f", snap.TotalLatencyMs)
	}

	stats.Reset()
	if snap := stats.Snapshot(); snap.RequestsSent != 0 || snap.TotalLatencyMs != 0 {
		t.Errorf("expected zeroed snapshot, got %+v", snap)
	}
}
