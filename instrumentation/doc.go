// Package instrumentation provides OpenTelemetry metrics and tracing for
// the portal SDK.
//
// When disabled (the default), no-op providers are used and the
// instrumented code paths carry no overhead. Callers that want real
// telemetry pass their own MeterProvider/TracerProvider, typically backed
// by an OTLP or Prometheus exporter.
package instrumentation
