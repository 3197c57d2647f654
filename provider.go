package otelkit

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc/credentials"
)

// provider is the capability every signal's export pipeline must expose to
// the guard: flush pending data, then stop.
type provider interface {
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// ownedProvider labels a provider with its signal for diagnostics.
type ownedProvider struct {
	signal Signal
	handle provider
}

// Overridable in tests to inject failing or recording providers.
var (
	buildTracerProvider = newTracerProvider
	buildLoggerProvider = newLoggerProvider
)

// buildProviders constructs one provider per enabled signal. On any failure
// the providers built so far are shut down before the error propagates, so a
// failed Setup never leaves a pipeline running.
func buildProviders(ctx context.Context, cfg *Config, res *resource.Resource) ([]ownedProvider, error) {
	var providers []ownedProvider

	cleanup := func() {
		for _, p := range providers {
			_ = p.handle.Shutdown(ctx)
		}
	}

	for _, signal := range cfg.Signals {
		var (
			handle provider
			err    error
		)
		switch signal {
		case SignalTraces:
			handle, err = buildTracerProvider(ctx, cfg, res)
		case SignalLogs:
			handle, err = buildLoggerProvider(ctx, cfg, res)
		default:
			err = &UnsupportedSignalError{Signal: signal}
		}
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("building %s provider: %w", signal, err)
		}
		providers = append(providers, ownedProvider{signal: signal, handle: handle})
	}

	return providers, nil
}

// newTracerProvider creates a TracerProvider with a batching OTLP exporter.
func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (provider, error) {
	ep, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	var exporter sdktrace.SpanExporter
	switch cfg.Protocol {
	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(ep.hostPort),
			otlptracegrpc.WithTimeout(cfg.ExportTimeout),
		}
		if ep.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{})))
		}
		if h := headerMap(cfg.Headers); h != nil {
			opts = append(opts, otlptracegrpc.WithHeaders(h))
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default: // http/protobuf, http/json
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(ep.hostPort),
			otlptracehttp.WithTimeout(cfg.ExportTimeout),
		}
		if ep.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if h := headerMap(cfg.Headers); h != nil {
			opts = append(opts, otlptracehttp.WithHeaders(h))
		}
		exporter, err = otlptracehttp.New(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	return tp, nil
}

// newLoggerProvider creates a LoggerProvider with a batching OTLP exporter.
func newLoggerProvider(ctx context.Context, cfg *Config, res *resource.Resource) (provider, error) {
	ep, err := parseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	var exporter sdklog.Exporter
	switch cfg.Protocol {
	case ProtocolGRPC:
		opts := []otlploggrpc.Option{
			otlploggrpc.WithEndpoint(ep.hostPort),
			otlploggrpc.WithTimeout(cfg.ExportTimeout),
		}
		if ep.insecure {
			opts = append(opts, otlploggrpc.WithInsecure())
		} else {
			opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewTLS(&tls.Config{})))
		}
		if h := headerMap(cfg.Headers); h != nil {
			opts = append(opts, otlploggrpc.WithHeaders(h))
		}
		exporter, err = otlploggrpc.New(ctx, opts...)
	default: // http/protobuf, http/json
		opts := []otlploghttp.Option{
			otlploghttp.WithEndpoint(ep.hostPort),
			otlploghttp.WithTimeout(cfg.ExportTimeout),
		}
		if ep.insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		if h := headerMap(cfg.Headers); h != nil {
			opts = append(opts, otlploghttp.WithHeaders(h))
		}
		exporter, err = otlploghttp.New(ctx, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	return lp, nil
}

// endpoint is the exporter-facing view of the resolved endpoint URL. The OTLP
// exporters expect host:port, not full URLs; TLS is derived from the scheme.
type endpoint struct {
	hostPort string
	insecure bool
}

func parseEndpoint(raw string) (endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return endpoint{}, fmt.Errorf("endpoint is empty")
	}

	// Bare host:port, e.g. "localhost:4317". Treated as insecure, matching
	// the local-collector default.
	if !strings.Contains(raw, "://") {
		return endpoint{hostPort: raw, insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return endpoint{}, fmt.Errorf("invalid endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return endpoint{}, fmt.Errorf("invalid endpoint %q: missing host", raw)
	}

	switch u.Scheme {
	case "http":
		return endpoint{hostPort: u.Host, insecure: true}, nil
	case "https":
		return endpoint{hostPort: u.Host, insecure: false}, nil
	default:
		return endpoint{}, fmt.Errorf("invalid endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
}
