package instrumentation

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments recorded by the SDK.
type Metrics struct {
	// HTTP layer
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram

	// Auth flow
	LoginAttempts   metric.Int64Counter
	SessionExpiries metric.Int64Counter

	// Security
	RateLimitBlocks      metric.Int64Counter
	EncryptionOperations metric.Int64Counter
	DecryptionFailures   metric.Int64Counter
}

// newMetrics creates and registers all metric instruments.
func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.RequestsTotal, err = meter.Int64Counter(
		"portal.client.requests.total",
		metric.WithDescription("Total number of API requests issued"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests.total counter: %w", err)
	}

	m.RequestDuration, err = meter.Float64Histogram(
		"portal.client.request.duration",
		metric.WithDescription("API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request.duration histogram: %w", err)
	}

	m.LoginAttempts, err = meter.Int64Counter(
		"portal.client.login.attempts",
		metric.WithDescription("Number of login attempts issued"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create login.attempts counter: %w", err)
	}

	m.SessionExpiries, err = meter.Int64Counter(
		"portal.client.session.expiries",
		metric.WithDescription("Number of sessions ended by a 401 response"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session.expiries counter: %w", err)
	}

	m.RateLimitBlocks, err = meter.Int64Counter(
		"portal.client.ratelimit.blocks",
		metric.WithDescription("Number of operations blocked client-side by the attempt limiter"),
		metric.WithUnit("{block}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.blocks counter: %w", err)
	}

	m.EncryptionOperations, err = meter.Int64Counter(
		"portal.client.encryption.operations",
		metric.WithDescription("Number of token encrypt/decrypt operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryption.operations counter: %w", err)
	}

	m.DecryptionFailures, err = meter.Int64Counter(
		"portal.client.decryption.failures",
		metric.WithDescription("Number of stored tokens discarded after failed decryption"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create decryption.failures counter: %w", err)
	}

	return m, nil
}
