package toolmesh

import (
	"context"
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const dnsCacheSize = 256

// cachingDialer wraps net.Dialer with a TTL-bounded DNS cache so repeated
// dials to the same fleet host skip the resolver. IP literals bypass the
// cache entirely.
type cachingDialer struct {
	dialer   *net.Dialer
	resolver *net.Resolver
	cache    *expirable.LRU[string, []string]
}

func newCachingDialer(connectTimeout time.Duration, keepAlive bool, dnsTTL time.Duration) *cachingDialer {
	dialer := &net.Dialer{
		Timeout: connectTimeout,
	}
	if keepAlive {
		dialer.KeepAlive = 30 * time.Second
	} else {
		dialer.KeepAlive = -1
	}

	d := &cachingDialer{
		dialer:   dialer,
		resolver: net.DefaultResolver,
	}
	if dnsTTL > 0 {
		d.cache = expirable.NewLRU[string, []string](dnsCacheSize, nil, dnsTTL)
	}
	return d
}

// DialContext resolves the host through the cache and dials each address in
// order until one connects.
func (d *cachingDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return d.dialer.DialContext(ctx, network, addr)
	}
	if d.cache == nil || net.ParseIP(host) != nil {
		return d.dialer.DialContext(ctx, network, addr)
	}

	addrs, err := d.lookup(ctx, host)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, resolved := range addrs {
		conn, err := d.dialer.DialContext(ctx, network, net.JoinHostPort(resolved, port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (d *cachingDialer) lookup(ctx context.Context, host string) ([]string, error) {
	if d.cache != nil {
		if addrs, ok := d.cache.Get(host); ok {
			return addrs, nil
		}
	}
	addrs, err := d.resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.cache.Add(host, addrs)
	}
	return addrs, nil
}

// probe performs a best-effort DNS resolution used by Transport.Initialize;
// failures are reported but never fatal.
func (d *cachingDialer) probe(ctx context.Context, host string) error {
	if net.ParseIP(host) != nil {
		return nil
	}
	_, err := d.lookup(ctx, host)
	return err
}
