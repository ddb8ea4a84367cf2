package toolmesh

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestDialerIPLiteralBypassesCache(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	dialer := newCachingDialer(5*time.Second, true, time.Minute)

	conn, err := dialer.DialContext(context.Background(), "tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("DialContext() returned error: %v", err)
	}
	conn.Close()

	if dialer.cache.Len() != 0 {
		t.Errorf("expected IP literal to skip the cache, got %d entries", dialer.cache.Len())
	}
}

func TestDialerCachesHostnames(t *testing.T) {
	dialer := newCachingDialer(5*time.Second, true, time.Minute)

	addrs, err := dialer.lookup(context.Background(), "localhost")
	if err != nil {
		t.Fatalf("lookup() returned error: %v", err)
	}
	if len(addrs) == 0 {
		t.Fatal("expected at least one address for localhost")
	}

	if cached, ok := dialer.cache.Get("localhost"); !ok || len(cached) != len(addrs) {
		t.Error("expected the resolution to be cached")
	}
}

func TestDialerNoCacheWhenTTLDisabled(t *testing.T) {
	dialer := newCachingDialer(5*time.Second, true, 0)
	if dialer.cache != nil {
		t.Error("expected no cache with zero TTL")
	}

	// A nil cache must not panic on lookup or probe.
	if err := dialer.probe(context.Background(), "127.0.0.1"); err != nil {
		t.Errorf("probe() returned error: %v", err)
	}
	if _, err := dialer.lookup(context.Background(), "localhost"); err != nil {
		t.Errorf("lookup() returned error: %v", err)
	}
}

func TestDialerKeepAliveSetting(t *testing.T) {
	on := newCachingDialer(time.Second, true, 0)
	if on.dialer.KeepAlive != 30*time.Second {
		t.Errorf("expected 30s keep-alive, got %v", on.dialer.KeepAlive)
	}

	off := newCachingDialer(time.Second, false, 0)
	if off.dialer.KeepAlive != -1 {
		t.Errorf("expected keep-alive disabled, got %v", off.dialer.KeepAlive)
	}
}
