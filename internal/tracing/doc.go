// Package tracing wires OpenTelemetry into the gateway.
//
// Setup installs an OTLP/HTTP exporter as the global tracer provider when an
// endpoint is configured. Middleware starts a server span per request and
// Transport carries the trace context to the backend and download services.
package tracing
