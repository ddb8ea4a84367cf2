package toolmesh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// invokeRequest is the wire body of an invoke call. Field names are part of
// the destination protocol and must not change.
type invokeRequest struct {
	Operation string `json:"operation"`
	Arguments any    `json:"arguments"`
}

// Client is the operation-level facade over the destination fleet. It owns
// one lazily-created Transport per destination, a parallelism gate shared
// by every call, an optional throttle, and aggregate call statistics. It is
// safe for concurrent use; construct with New and release with Shutdown.
type Client struct {
	registry     *Registry
	transportCfg TransportConfig
	clientCfg    ClientConfig
	breakerCfg   *CircuitBreakerConfig
	factory      TransportFactory
	middleware   []Middleware
	logger       Logger
	debug        *DebugConfig
	metrics      *MetricsCollector

	sem     *semaphore.Weighted
	limiter *rate.Limiter
	stats   *ClientStats

	mu         sync.RWMutex
	transports map[string]Transporter

	closed          int32
	validationError error

	// unknownMode holds a mode name that failed to parse; the warning is
	// deferred to New so it reaches the final logger regardless of option
	// order.
	unknownMode string
}

// New constructs a Client over the given registry using the provided
// functional options. Mode options apply whole preset bundles; granular
// options layered after a mode override single fields. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(registry *Registry, options ...Option) *Client {
	client := &Client{
		registry:     registry,
		transportCfg: ModeStandard.transportConfig(),
		clientCfg:    ModeStandard.clientConfig(),
		stats:        &ClientStats{},
		transports:   make(map[string]Transporter),
		debug:        DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if client.clientCfg.MaxParallelRequests <= 0 {
		client.clientCfg.MaxParallelRequests = 1
	}
	client.sem = semaphore.NewWeighted(int64(client.clientCfg.MaxParallelRequests))

	if client.clientCfg.EnableThrottling && client.clientCfg.RequestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(client.clientCfg.RequestsPerSecond), 1)
	}

	if client.factory == nil {
		client.factory = client.defaultFactory
	}

	if client.unknownMode != "" {
		logger := client.logger
		if logger == nil {
			logger = NewSimpleLogger()
		}
		logger.Warn("unknown operating mode, falling back to standard", "mode", client.unknownMode)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

func (c *Client) defaultFactory(destination, baseURL string) Transporter {
	opts := []TransportOption{}
	if c.logger != nil {
		opts = append(opts, WithTransportLogger(c.logger))
	}
	if c.metrics != nil {
		opts = append(opts, WithTransportMetrics(c.metrics))
	}
	if len(c.middleware) > 0 {
		opts = append(opts, WithTransportMiddleware(c.middleware...))
	}
	if c.breakerCfg != nil {
		opts = append(opts, WithTransportCircuitBreaker(*c.breakerCfg))
	}
	if c.debug != nil {
		opts = append(opts, WithTransportDebug(c.debug))
	}
	return NewTransport(destination, baseURL, c.transportCfg, opts...)
}

// Invoke executes one named operation on one destination and returns the
// decoded result. Unknown destinations fail fast without network I/O; every
// later failure is wrapped with destination/operation context so callers
// never see raw transport errors.
func (c *Client) Invoke(ctx context.Context, destination, operation string, payload any, opts ...CallOption) (any, error) {
	if atomic.LoadInt32(&c.closed) == 1 {
		return nil, &Error{
			Type:        ErrorTypeTransportClosed,
			Message:     "client has been shut down",
			Destination: destination,
			Operation:   operation,
			Cause:       ErrTransportClosed,
		}
	}

	baseURL, err := c.registry.Resolve(destination)
	if err != nil {
		return nil, err
	}

	co := callOptions{}
	for _, opt := range opts {
		opt(&co)
	}

	var requestID string
	if c.debugEnabled() && c.debug.RequestIDGen != nil {
		requestID = c.debug.RequestIDGen()
	}
	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("starting invocation", "requestID", requestID, "destination", destination, "operation", operation)
	}

	c.stats.recordSent()
	start := time.Now()

	fail := func(cause error) (any, error) {
		c.stats.recordFailure(time.Since(start).Microseconds())
		return nil, c.wrapInvocation(destination, operation, requestID, cause)
	}

	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(&Error{Type: ErrorTypeTimeout, Message: "canceled while throttled", Cause: err})
		}
		if wait := time.Since(waitStart); wait > time.Millisecond {
			c.metrics.RecordThrottleWait(destination, wait)
			if c.debugEnabled() && c.debug.LogThrottle {
				c.logger.Debug("throttled", "requestID", requestID, "destination", destination, "wait", wait)
			}
		}
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return fail(&Error{Type: ErrorTypeTimeout, Message: "canceled while waiting for a request slot", Cause: err})
	}
	defer c.sem.Release(1)

	transport := c.transportFor(destination, baseURL)

	body, err := json.Marshal(invokeRequest{Operation: operation, Arguments: payload})
	if err != nil {
		return fail(&Error{Type: ErrorTypeValidation, Message: "payload is not JSON-encodable", Cause: err})
	}

	header := http.Header{}
	for key, values := range co.header {
		for _, value := range values {
			header.Add(key, value)
		}
	}
	header.Set("Content-Type", "application/json")

	env := &Envelope{
		Method:            http.MethodPost,
		URL:               baseURL + "/invoke/" + operation,
		Body:              body,
		Header:            header,
		Timeout:           co.timeout,
		RetryableStatuses: co.retryableStatuses,
	}

	resp, err := transport.Request(ctx, env)
	if err != nil {
		return fail(err)
	}

	if resp.StatusCode != http.StatusOK {
		return fail(&Error{
			Type:       ErrorTypeInvocation,
			Message:    fmt.Sprintf("destination answered status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		})
	}

	result := resp.Body
	if result == nil && len(resp.Raw) > 0 {
		// Non-JSON responses pass through as raw bytes.
		result = resp.Raw
	}

	if c.clientCfg.EnableResponseValidation {
		if err := validateResult(result); err != nil {
			return fail(err)
		}
	}

	c.stats.recordSuccess(time.Since(start).Microseconds())
	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("invocation complete", "requestID", requestID, "destination", destination, "operation", operation, "duration", time.Since(start))
	}
	return result, nil
}

// validateResult rejects empty results and results shaped as {"error": ...}.
// Validation failures are not considered transient.
func validateResult(result any) error {
	if result == nil {
		return &Error{Type: ErrorTypeInvalidResponse, Message: "destination returned an empty result"}
	}
	if m, ok := result.(map[string]any); ok {
		if errValue, has := m["error"]; has {
			return &Error{
				Type:    ErrorTypeInvalidResponse,
				Message: fmt.Sprintf("destination returned an error result: %v", errValue),
			}
		}
	}
	return nil
}

// BatchInvoke runs the same operation over many payloads: sequential chunks
// of BatchSize, concurrent within a chunk. The output always has one Result
// per payload in input order; a failed item carries its error in its slot
// and never aborts the rest.
func (c *Client) BatchInvoke(ctx context.Context, destination, operation string, payloads []any, opts ...CallOption) []Result {
	results := make([]Result, len(payloads))
	chunkSize := c.clientCfg.BatchSize
	if chunkSize <= 0 {
		chunkSize = 1
	}

	for chunkStart := 0; chunkStart < len(payloads); chunkStart += chunkSize {
		chunkEnd := chunkStart + chunkSize
		if chunkEnd > len(payloads) {
			chunkEnd = len(payloads)
		}

		var wg sync.WaitGroup
		for i := chunkStart; i < chunkEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				value, err := c.Invoke(ctx, destination, operation, payloads[i], opts...)
				results[i] = Result{Value: value, Err: err}
			}(i)
		}
		wg.Wait()
	}

	return results
}

// FanOut issues independent calls concurrently, bounded by the same
// parallelism gate as Invoke, and returns results keyed by input index.
// Per-call failures are captured individually and never abort siblings.
func (c *Client) FanOut(ctx context.Context, calls []Call, opts ...CallOption) map[int]Result {
	results := make(map[int]Result, len(calls))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call Call) {
			defer wg.Done()
			value, err := c.Invoke(ctx, call.Destination, call.Operation, call.Payload, opts...)
			mu.Lock()
			results[i] = Result{Value: value, Err: err}
			mu.Unlock()
		}(i, call)
	}
	wg.Wait()

	return results
}

// Ping probes a destination's health endpoint. A nil return means the
// destination answered 200.
func (c *Client) Ping(ctx context.Context, destination string) error {
	baseURL, err := c.registry.Resolve(destination)
	if err != nil {
		return err
	}

	transport := c.transportFor(destination, baseURL)
	env := &Envelope{
		Method: http.MethodGet,
		URL:    baseURL + "/health",
	}
	resp, err := transport.Request(ctx, env)
	if err != nil {
		return c.wrapInvocation(destination, "health", "", err)
	}
	if resp.StatusCode != http.StatusOK {
		return c.wrapInvocation(destination, "health", "", &Error{
			Type:       ErrorTypeInvocation,
			Message:    fmt.Sprintf("health endpoint answered status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
		})
	}
	return nil
}

func (c *Client) transportFor(destination, baseURL string) Transporter {
	c.mu.RLock()
	transport, ok := c.transports[destination]
	c.mu.RUnlock()
	if ok {
		return transport
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if transport, ok := c.transports[destination]; ok {
		return transport
	}
	transport = c.factory(destination, baseURL)
	transport.Initialize()
	c.transports[destination] = transport
	return transport
}

func (c *Client) wrapInvocation(destination, operation, requestID string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeInvocation,
		Message:     "invocation failed",
		Destination: destination,
		Operation:   operation,
		RequestID:   requestID,
		Timestamp:   time.Now(),
		Cause:       cause,
	}
}

// Stats returns a snapshot of the client's aggregate call counters.
func (c *Client) Stats() ClientStatsSnapshot {
	return c.stats.Snapshot()
}

// ResetStats zeroes the client's aggregate call counters.
func (c *Client) ResetStats() {
	c.stats.Reset()
}

// NetworkStats returns the transfer counters of one destination's
// transport; ok is false if the destination has not been used yet.
func (c *Client) NetworkStats(destination string) (NetworkStatsSnapshot, bool) {
	c.mu.RLock()
	transport, ok := c.transports[destination]
	c.mu.RUnlock()
	if !ok {
		return NetworkStatsSnapshot{}, false
	}
	return transport.Stats(), true
}

// Destinations returns the sorted names of every registered destination.
func (c *Client) Destinations() []string {
	return c.registry.Names()
}

// Shutdown releases every transport the client created. Idempotent;
// in-flight calls are drained by their transports, and calls issued
// afterwards fail with a TransportClosed error.
func (c *Client) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, transport := range c.transports {
		if err := transport.Shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.logger != nil {
		c.logger.Info("client shut down", "transports", len(c.transports))
	}
	return firstErr
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}
