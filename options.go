package otelkit

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Protocol selects the OTLP transport.
type Protocol string

const (
	// ProtocolGRPC exports over gRPC (default collector port 4317).
	ProtocolGRPC Protocol = "grpc"
	// ProtocolHTTPProtobuf exports over HTTP with protobuf encoding (default, port 4318).
	ProtocolHTTPProtobuf Protocol = "http/protobuf"
	// ProtocolHTTPJSON exports over HTTP with JSON encoding (port 4318).
	ProtocolHTTPJSON Protocol = "http/json"
)

// Signal identifies one telemetry category.
type Signal string

const (
	SignalTraces  Signal = "traces"
	SignalLogs    Signal = "logs"
	SignalMetrics Signal = "metrics"
)

// Header is a single exporter request header. Headers are kept as an ordered
// slice because insertion order is part of the resolution contract.
type Header struct {
	Key   string
	Value string
}

// Options holds programmatic configuration for Setup.
//
// Every field is optional; unset fields fall back to environment variables,
// then to built-in defaults.
type Options struct {
	endpoint           string
	protocol           Protocol
	headers            []Header
	resourceAttributes []attribute.KeyValue
	exportTimeout      time.Duration
	levelDirective     string
	consoleFormat      string
	signals            []Signal
	shutdownTimeout    time.Duration
	errorHandler       func(error)
}

// Option configures Setup.
type Option func(*Options)

// WithEndpoint sets the OTLP endpoint URL (e.g. "http://collector:4317").
func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.endpoint = endpoint
	}
}

// WithProtocol sets the OTLP transport protocol.
func WithProtocol(p Protocol) Option {
	return func(o *Options) {
		o.protocol = p
	}
}

// WithHeader adds one header to OTLP export requests (e.g. authorization
// tokens). Repeated calls preserve insertion order; setting an existing key
// overwrites its value in place.
func WithHeader(key, value string) Option {
	return func(o *Options) {
		o.headers = setHeader(o.headers, key, value)
	}
}

// WithResourceAttributes appends resource attributes attached to every
// exported span and log record (e.g. deployment.environment).
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(o *Options) {
		o.resourceAttributes = append(o.resourceAttributes, attrs...)
	}
}

// WithExportTimeout sets the timeout for OTLP export requests.
func WithExportTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.exportTimeout = d
	}
}

// WithLogLevel sets the level filter directive, e.g. "info", "debug", or a
// per-scope form like "info,grpc=debug".
func WithLogLevel(directive string) Option {
	return func(o *Options) {
		o.levelDirective = directive
	}
}

// WithConsoleFormat selects the console encoder: "console" (default) or "json".
func WithConsoleFormat(format string) Option {
	return func(o *Options) {
		o.consoleFormat = format
	}
}

// WithSignals restricts which signals get export pipelines. Defaults to
// traces and logs. SignalMetrics is not supported and fails Setup.
func WithSignals(signals ...Signal) Option {
	return func(o *Options) {
		o.signals = signals
	}
}

// WithShutdownTimeout bounds how long Guard.Shutdown waits for providers to
// flush and stop when the caller's context has no deadline. Defaults to 5s.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.shutdownTimeout = d
	}
}

// WithErrorHandler overrides where flush/shutdown diagnostics are reported.
// Defaults to the global OTel error handler (otel.Handle).
func WithErrorHandler(fn func(error)) Option {
	return func(o *Options) {
		o.errorHandler = fn
	}
}

// setHeader overwrites key in place if present, otherwise appends.
func setHeader(headers []Header, key, value string) []Header {
	for i := range headers {
		if headers[i].Key == key {
			headers[i].Value = value
			return headers
		}
	}
	return append(headers, Header{Key: key, Value: value})
}

// headerMap flattens ordered headers for exporter option calls.
func headerMap(headers []Header) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	m := make(map[string]string, len(headers))
	for _, h := range headers {
		m[h.Key] = h.Value
	}
	return m
}
