package toolmesh

import (
	"fmt"
	"time"
)

// WithMode applies a whole operating-mode preset (transport + client
// parameters). Apply it before granular options so they can override
// individual fields.
func WithMode(mode OperatingMode) Option {
	return func(c *Client) {
		c.transportCfg = mode.transportConfig()
		c.clientCfg = mode.clientConfig()
		c.breakerCfg = mode.breakerConfig()
	}
}

// WithModeName applies the preset named in external configuration. Unknown
// names fall back to the standard mode with a warning, never an error. The
// warning is emitted once construction finishes, through whatever logger the
// client ends up with (a stderr logger when none is configured), so option
// order does not swallow it.
func WithModeName(name string) Option {
	return func(c *Client) {
		mode, known := ParseOperatingMode(name)
		if known {
			c.unknownMode = ""
		} else {
			c.unknownMode = name
		}
		WithMode(mode)(c)
	}
}

// WithTransportConfig replaces the transport parameters wholesale.
func WithTransportConfig(cfg TransportConfig) Option {
	return func(c *Client) {
		c.transportCfg = cfg
	}
}

// WithClientConfig replaces the client parameters wholesale.
func WithClientConfig(cfg ClientConfig) Option {
	return func(c *Client) {
		c.clientCfg = cfg
	}
}

// WithMaxRetries sets the maximum number of retry attempts
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.transportCfg.MaxRetries = n
	}
}

// WithRetryStrategy sets the retry delay algorithm.
func WithRetryStrategy(strategy RetryStrategy) Option {
	return func(c *Client) {
		c.transportCfg.RetryStrategy = strategy
	}
}

// WithRetryDelays sets the base and maximum retry delay.
func WithRetryDelays(base, max time.Duration) Option {
	return func(c *Client) {
		c.transportCfg.RetryBaseDelay = base
		c.transportCfg.RetryMaxDelay = max
	}
}

// WithCompression enables gzip compression for bodies at or above the
// threshold in bytes.
func WithCompression(thresholdBytes int) Option {
	return func(c *Client) {
		c.transportCfg.CompressionEnabled = true
		c.transportCfg.CompressionAlgorithm = CompressionGzip
		c.transportCfg.CompressionThreshold = thresholdBytes
	}
}

// WithoutCompression disables request body compression.
func WithoutCompression() Option {
	return func(c *Client) {
		c.transportCfg.CompressionEnabled = false
		c.transportCfg.CompressionAlgorithm = CompressionNone
	}
}

// WithBatchSize sets the BatchInvoke chunk size.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		c.clientCfg.BatchSize = n
	}
}

// WithMaxParallelRequests bounds the number of concurrently dispatched
// requests across Invoke, BatchInvoke and FanOut.
func WithMaxParallelRequests(n int) Option {
	return func(c *Client) {
		c.clientCfg.MaxParallelRequests = n
	}
}

// WithThrottle enforces a requests-per-second ceiling across the whole
// client.
func WithThrottle(requestsPerSecond float64) Option {
	return func(c *Client) {
		c.clientCfg.EnableThrottling = true
		c.clientCfg.RequestsPerSecond = requestsPerSecond
	}
}

// WithResponseValidation toggles rejection of empty and {"error": ...}
// shaped results.
func WithResponseValidation(enabled bool) Option {
	return func(c *Client) {
		c.clientCfg.EnableResponseValidation = enabled
	}
}

// WithCircuitBreaker guards every destination with a circuit breaker.
func WithCircuitBreaker(config CircuitBreakerConfig) Option {
	return func(c *Client) {
		c.breakerCfg = &config
	}
}

// WithMiddleware adds middleware to every transport the client creates.
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithTransportFactory replaces how transports are built — the hook for
// selecting NullTransport in tests and dry-run hosts.
func WithTransportFactory(factory TransportFactory) Option {
	return func(c *Client) {
		c.factory = factory
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateTransportConfig()...)
	errors = append(errors, c.validateClientConfig()...)
	errors = append(errors, c.validateBreakerConfig()...)
	errors = append(errors, c.validateDebugConfig()...)

	if len(errors) > 0 {
		return &Error{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

func (c *Client) validateTransportConfig() []string {
	var errors []string
	cfg := c.transportCfg

	if cfg.MaxConnections <= 0 {
		errors = append(errors, "MaxConnections must be positive")
	}
	if cfg.MaxConnectionsPerDestination <= 0 {
		errors = append(errors, "MaxConnectionsPerDestination must be positive")
	}
	if cfg.ConnectTimeout <= 0 {
		errors = append(errors, "ConnectTimeout must be positive")
	}
	if cfg.MaxRetries < 0 {
		errors = append(errors, "MaxRetries must be non-negative")
	}
	if cfg.RetryStrategy != RetryNone {
		if cfg.RetryBaseDelay <= 0 {
			errors = append(errors, "RetryBaseDelay must be positive")
		}
		if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
			errors = append(errors, "RetryMaxDelay must be greater than or equal to RetryBaseDelay")
		}
	}
	if cfg.CompressionEnabled && cfg.CompressionThreshold < 0 {
		errors = append(errors, "CompressionThreshold must be non-negative")
	}

	return errors
}

func (c *Client) validateClientConfig() []string {
	var errors []string
	cfg := c.clientCfg

	if cfg.BatchSize <= 0 {
		errors = append(errors, "BatchSize must be positive")
	}
	if cfg.MaxParallelRequests <= 0 {
		errors = append(errors, "MaxParallelRequests must be positive")
	}
	if cfg.EnableThrottling && cfg.RequestsPerSecond <= 0 {
		errors = append(errors, "RequestsPerSecond must be positive when throttling is enabled")
	}

	return errors
}

func (c *Client) validateBreakerConfig() []string {
	var errors []string

	if c.breakerCfg != nil {
		if c.breakerCfg.FailureThreshold < 0 {
			errors = append(errors, "circuit breaker FailureThreshold must be non-negative")
		}
		if c.breakerCfg.RecoveryTimeout < 0 {
			errors = append(errors, "circuit breaker RecoveryTimeout must be non-negative")
		}
	}

	return errors
}

func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}
