package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	// DefaultServiceName is used when no service name is configured.
	DefaultServiceName = "portal-client"

	// DefaultServiceVersion is used when no version is configured.
	DefaultServiceVersion = "unknown"

	// scopeName is the instrumentation scope for meters and tracers.
	scopeName = "github.com/shifahealth/portal-go"
)

// Config holds instrumentation configuration.
type Config struct {
	// ServiceName identifies the client in telemetry (e.g. "portal-web").
	ServiceName string

	// ServiceVersion is the client version.
	ServiceVersion string

	// Enabled controls whether instrumentation is active. When false,
	// no-op providers are used.
	Enabled bool

	// MeterProvider supplies metrics. Required when Enabled; ignored
	// otherwise.
	MeterProvider metric.MeterProvider

	// TracerProvider supplies traces. Required when Enabled; ignored
	// otherwise.
	TracerProvider trace.TracerProvider

	// Resource allows custom resource attributes. If nil, a default
	// resource is built from the service name and version.
	Resource *resource.Resource
}

// Instrumentation provides the SDK's meters, tracers, and metric
// instruments.
type Instrumentation struct {
	config   Config
	resource *resource.Resource

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	metrics *Metrics
}

// New creates a new instrumentation instance.
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = DefaultServiceName
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = DefaultServiceVersion
	}

	res := config.Resource
	if res == nil {
		var err error
		res, err = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource: %w", err)
		}
	}

	inst := &Instrumentation{
		config:   config,
		resource: res,
	}

	if config.Enabled && config.MeterProvider != nil {
		inst.meterProvider = config.MeterProvider
	} else {
		inst.meterProvider = metricnoop.NewMeterProvider()
	}
	if config.Enabled && config.TracerProvider != nil {
		inst.tracerProvider = config.TracerProvider
	} else {
		inst.tracerProvider = tracenoop.NewTracerProvider()
	}

	var err error
	inst.metrics, err = newMetrics(inst.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return inst, nil
}

// Disabled returns an instrumentation instance wired to no-op providers.
// Never returns an error; suitable as a default.
func Disabled() *Instrumentation {
	inst, err := New(Config{Enabled: false})
	if err != nil {
		// newMetrics cannot fail against the no-op meter
		panic(fmt.Sprintf("instrumentation: disabled init failed: %v", err))
	}
	return inst
}

// Meter returns the SDK meter.
func (i *Instrumentation) Meter() metric.Meter {
	return i.meterProvider.Meter(scopeName)
}

// Tracer returns the SDK tracer.
func (i *Instrumentation) Tracer() trace.Tracer {
	return i.tracerProvider.Tracer(scopeName)
}

// Metrics returns the pre-built metric instruments.
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// Resource returns the telemetry resource.
func (i *Instrumentation) Resource() *resource.Resource {
	return i.resource
}
