package toolmesh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/toolmesh/toolmesh/internal/backoff"
)

// Transport delivers requests to one destination over a pooled HTTP
// connection set, applying compression, retry with backoff, and stats
// collection. One Transport per destination; safe for concurrent use.
type Transport struct {
	destination string
	baseURL     string
	config      TransportConfig

	httpClient *http.Client
	dialer     *cachingDialer
	calc       *backoff.Calculator
	breaker    *CircuitBreaker
	middleware []Middleware
	stats      *NetworkStats
	metrics    *MetricsCollector
	logger     Logger
	debug      *DebugConfig

	initOnce sync.Once
	closed   int32
	inflight sync.WaitGroup
}

// TransportOption customizes a Transport at construction.
type TransportOption func(*Transport)

// WithTransportLogger sets the logger used for transport lifecycle events.
func WithTransportLogger(logger Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// WithTransportMetrics sets the Prometheus collector.
func WithTransportMetrics(metrics *MetricsCollector) TransportOption {
	return func(t *Transport) {
		t.metrics = metrics
	}
}

// WithTransportMiddleware appends middleware around HTTP execution.
func WithTransportMiddleware(middleware ...Middleware) TransportOption {
	return func(t *Transport) {
		t.middleware = append(t.middleware, middleware...)
	}
}

// WithTransportCircuitBreaker guards the destination with a circuit breaker.
func WithTransportCircuitBreaker(config CircuitBreakerConfig) TransportOption {
	return func(t *Transport) {
		t.breaker = NewCircuitBreaker(config)
	}
}

// WithTransportDebug sets the debug configuration.
func WithTransportDebug(debug *DebugConfig) TransportOption {
	return func(t *Transport) {
		t.debug = debug
	}
}

// NewTransport creates a Transport for one destination. The connection pool
// is bounded by the config; no connection is opened until the first request.
func NewTransport(destination, baseURL string, config TransportConfig, options ...TransportOption) *Transport {
	dialer := newCachingDialer(config.ConnectTimeout, config.KeepAliveEnabled, config.DNSCacheTTL)

	pool := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        config.MaxConnections,
		MaxConnsPerHost:     config.MaxConnectionsPerDestination,
		MaxIdleConnsPerHost: config.MaxConnectionsPerDestination,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   !config.KeepAliveEnabled,
	}

	t := &Transport{
		destination: destination,
		baseURL:     strings.TrimRight(baseURL, "/"),
		config:      config,
		httpClient:  &http.Client{Transport: pool},
		dialer:      dialer,
		calc:        backoff.NewCalculator(config.RetryStrategy.backoffStrategy(), config.RetryBaseDelay, config.RetryMaxDelay),
		stats:       &NetworkStats{},
	}

	for _, option := range options {
		option(t)
	}

	return t
}

// Destination returns the destination name this transport serves.
func (t *Transport) Destination() string {
	return t.destination
}

// Initialize performs the one-time DNS probe of the destination host.
// Idempotent. A failed probe is logged and never blocks startup: the fleet
// may simply not be up yet.
func (t *Transport) Initialize() error {
	t.initOnce.Do(func() {
		parsed, err := url.Parse(t.baseURL)
		if err != nil || parsed.Hostname() == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), t.config.ConnectTimeout)
		defer cancel()
		if err := t.dialer.probe(ctx, parsed.Hostname()); err != nil {
			initErr := &Error{
				Type:        ErrorTypeTransportInit,
				Message:     fmt.Sprintf("destination %q is not resolvable", t.destination),
				Destination: t.destination,
				URL:         t.baseURL,
				Timestamp:   time.Now(),
				Cause:       err,
			}
			if t.logger != nil {
				t.logger.Warn("transport init probe failed", "destination", t.destination, "error", initErr.Error())
			}
		}
	})
	return nil
}

// Request delivers one Envelope, compressing the body above the threshold
// and retrying retryable statuses and transient transport errors per the
// configured strategy. The effective timeout (per-call override else
// ConnectTimeout) bounds the whole call including backoff sleeps.
func (t *Transport) Request(ctx context.Context, env *Envelope) (*Response, error) {
	if atomic.LoadInt32(&t.closed) == 1 {
		return nil, t.newError(ErrorTypeTransportClosed, "transport has been shut down", ErrTransportClosed, env, 0, 0)
	}
	t.inflight.Add(1)
	defer t.inflight.Done()

	t.Initialize()

	body, encoding := t.prepareBody(env.Body)

	timeout := env.Timeout
	if timeout <= 0 {
		timeout = t.config.ConnectTimeout
	}
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	retryable := env.RetryableStatuses
	if len(retryable) == 0 {
		retryable = DefaultRetryableStatuses
	}
	retrySet := make(map[int]struct{}, len(retryable))
	for _, status := range retryable {
		retrySet[status] = struct{}{}
	}

	maxRetries := t.config.MaxRetries
	if t.config.RetryStrategy == RetryNone {
		maxRetries = 0
	}

	t.stats.recordSent(int64(len(body)))
	t.metrics.RecordRequestStart(t.destination, env.Method)
	defer t.metrics.RecordRequestEnd(t.destination, env.Method)
	start := time.Now()

	for attempt := 0; ; attempt++ {
		if t.breaker != nil && !t.breaker.Allow() {
			t.metrics.RecordError(ErrorTypeCircuitOpen, t.destination)
			t.metrics.RecordCircuitBreakerState(t.destination, t.breaker.State())
			t.stats.recordFailure()
			if t.debugEnabled() && t.debug.LogCircuit {
				t.logger.Warn("circuit breaker rejected request", "destination", t.destination, "state", t.breaker.State())
			}
			return nil, t.newError(ErrorTypeCircuitOpen, "circuit breaker is open", ErrCircuitOpen, env, attempt, 0)
		}

		if attempt > 0 {
			t.stats.recordAttemptBytes(int64(len(body)))
		}

		resp, err := t.execute(callCtx, env, body, encoding)

		if err == nil {
			if _, retry := retrySet[resp.StatusCode]; !retry {
				return t.finish(env, resp, start)
			}
			// Retryable status: fall through to the retry decision.
			t.metrics.RecordError(ErrorTypeRequestFailed, t.destination)
			t.recordBreakerFailure()
			if attempt >= maxRetries {
				t.stats.recordFailure()
				t.metrics.RecordRequest(t.destination, env.Method, resp.StatusCode, time.Since(start))
				return nil, t.newError(ErrorTypeRequestFailed,
					fmt.Sprintf("retryable status %d persisted after %d attempts", resp.StatusCode, attempt+1),
					nil, env, attempt, resp.StatusCode)
			}
		} else {
			errType := classifyTransportError(err)
			if errType == ErrorTypeTimeout {
				t.stats.recordTimeoutError()
			} else {
				t.stats.recordConnectionError()
			}
			t.metrics.RecordError(errType, t.destination)
			t.recordBreakerFailure()

			// A dead per-call context means no attempt can succeed anymore.
			if attempt >= maxRetries || callCtx.Err() != nil {
				t.stats.recordFailure()
				t.metrics.RecordRequest(t.destination, env.Method, 0, time.Since(start))
				return nil, t.newError(errType, "request failed", err, env, attempt, 0)
			}
		}

		retryNumber := attempt + 1
		t.stats.recordRetry()
		t.metrics.RecordRetry(t.destination, env.Method)
		delay := t.calc.Delay(retryNumber)

		if t.debugEnabled() && t.debug.LogRetries {
			t.logger.Info("scheduling retry", "destination", t.destination, "retry", retryNumber, "maxRetries", maxRetries, "backoff", delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-callCtx.Done():
			timer.Stop()
			t.stats.recordTimeoutError()
			t.stats.recordFailure()
			t.metrics.RecordError(ErrorTypeTimeout, t.destination)
			return nil, t.newError(ErrorTypeTimeout, "timed out during retry backoff", callCtx.Err(), env, attempt, 0)
		case <-timer.C:
		}
	}
}

// prepareBody compresses the payload when it crosses the configured
// threshold. Payloads that grow under compression are sent uncompressed.
func (t *Transport) prepareBody(payload []byte) ([]byte, string) {
	if len(payload) == 0 ||
		!t.config.CompressionEnabled ||
		t.config.CompressionAlgorithm != CompressionGzip ||
		len(payload) < t.config.CompressionThreshold {
		return payload, ""
	}

	compressed, err := compressGzip(payload)
	if err != nil || len(compressed) > len(payload) {
		return payload, ""
	}

	t.stats.recordCompression(int64(len(payload)), int64(len(compressed)))
	t.metrics.RecordCompressionRatio(t.destination, float64(len(payload))/float64(len(compressed)))
	return compressed, "gzip"
}

// execute performs a single HTTP attempt.
func (t *Transport) execute(ctx context.Context, env *Envelope, body []byte, encoding string) (*Response, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, env.Method, env.URL, reader)
	if err != nil {
		return nil, err
	}
	for key, values := range env.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}

	attemptStart := time.Now()
	httpResp, err := t.roundTrip(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	t.stats.recordReceived(int64(len(raw)))
	t.stats.recordLatencyMicros(time.Since(attemptStart).Microseconds())
	t.metrics.RecordBytes(t.destination, int64(len(body)), int64(len(raw)))

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Raw:        raw,
	}
	if len(raw) > 0 && strings.Contains(httpResp.Header.Get("Content-Type"), "application/json") {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			resp.Body = decoded
		}
	}
	return resp, nil
}

// finish settles a terminal (non-retryable) HTTP outcome.
func (t *Transport) finish(env *Envelope, resp *Response, start time.Time) (*Response, error) {
	t.metrics.RecordRequest(t.destination, env.Method, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 400 {
		t.recordBreakerFailure()
		t.stats.recordFailure()
		t.metrics.RecordError(ErrorTypeRequestFailed, t.destination)
		return nil, t.newError(ErrorTypeRequestFailed,
			fmt.Sprintf("destination returned status %d", resp.StatusCode),
			nil, env, 0, resp.StatusCode)
	}

	if t.breaker != nil {
		t.breaker.RecordSuccess()
		t.metrics.RecordCircuitBreakerState(t.destination, t.breaker.State())
	}
	t.stats.recordSuccess()
	return resp, nil
}

func (t *Transport) recordBreakerFailure() {
	if t.breaker == nil {
		return
	}
	t.breaker.RecordFailure()
	t.metrics.RecordCircuitBreakerState(t.destination, t.breaker.State())
}

func (t *Transport) roundTrip(req *http.Request) (*http.Response, error) {
	if len(t.middleware) == 0 {
		return t.httpClient.Do(req)
	}

	current := RoundTripperFunc(t.httpClient.Do)

	for i := len(t.middleware) - 1; i >= 0; i-- {
		middleware := t.middleware[i]
		next := current
		current = RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			return middleware(r, next)
		})
	}

	return current.RoundTrip(req)
}

// Shutdown drains in-flight requests and releases pooled connections.
// Idempotent; requests issued afterwards fail with a TransportClosed error.
func (t *Transport) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&t.closed, 0, 1) {
		return nil
	}
	t.inflight.Wait()
	if pool, ok := t.httpClient.Transport.(*http.Transport); ok {
		pool.CloseIdleConnections()
	}
	if t.logger != nil {
		t.logger.Debug("transport shut down", "destination", t.destination)
	}
	return nil
}

// Stats returns a snapshot of the transport's counters.
func (t *Transport) Stats() NetworkStatsSnapshot {
	return t.stats.Snapshot()
}

// ResetStats zeroes the transport's counters.
func (t *Transport) ResetStats() {
	t.stats.Reset()
}

func (t *Transport) debugEnabled() bool {
	return t.debug != nil && t.debug.Enabled && t.logger != nil
}

func (t *Transport) newError(errType, message string, cause error, env *Envelope, attempt, status int) *Error {
	return &Error{
		Type:        errType,
		Message:     message,
		Destination: t.destination,
		Method:      env.Method,
		URL:         env.URL,
		StatusCode:  status,
		Attempt:     attempt + 1,
		MaxRetries:  t.config.MaxRetries,
		Timestamp:   time.Now(),
		Cause:       cause,
	}
}

// classifyTransportError separates timeouts from connection-level failures
// for stats and the error taxonomy.
func classifyTransportError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorTypeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorTypeTimeout
	}
	return ErrorTypeConnection
}
