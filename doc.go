// Package toolmesh is a resilient client layer for a fleet of HTTP tool
// servers. Each server ("destination") exposes named operations behind a
// uniform invoke endpoint; toolmesh layers the reliability machinery a
// caller would otherwise rebuild per integration:
//
//   - Per‑destination pooled transports with keepalive and a TTL DNS cache
//   - Gzip payload compression above a configurable threshold
//   - Retries with NONE / LINEAR / EXPONENTIAL / FIBONACCI backoff + jitter
//   - Request throttling (token bucket) and a bounded parallelism gate
//   - Batching with order‑preserving results and multi‑destination fan‑out
//   - Optional per‑destination circuit breaker
//   - Prometheus metrics plus lightweight per‑transport counters
//
// Design goals:
//   - Small surface area – functional options configure everything
//   - Safe concurrent use of a single *Client instance
//   - Partial failure as data: batch and fan‑out never abort siblings
//   - Extensibility via user supplied middleware & pluggable metrics
//
// Typical usage:
//
//	registry, err := toolmesh.LoadRegistry("servers.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client := toolmesh.New(registry,
//	    toolmesh.WithMode(toolmesh.ModeStandard),
//	    toolmesh.WithMetrics(),
//	)
//	defer client.Shutdown()
//	result, err := client.Invoke(ctx, "crm", "list_accounts", map[string]any{"limit": 50})
//
// The library is payload‑agnostic: it moves JSON in and out of destinations
// without interpreting it. Credentials are the caller's concern — attach
// them as headers via per‑call options or a middleware.
// The library avoids opinionated logging: provide a Logger (e.g. via
// WithSimpleLogger) + enable debug flags selectively for insight without noise.
package toolmesh
