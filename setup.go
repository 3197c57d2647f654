package otelkit

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// The process-wide installation slot. Written at most once per process
// lifetime; the mutex makes the check-then-set atomic so two concurrent
// Setup calls cannot both succeed.
var (
	setupMu    sync.Mutex
	installed  bool
	restoreZap func()
)

// Setup resolves configuration, builds one export pipeline per enabled
// signal, and installs the composed logger and providers process-wide.
//
// The returned Guard must be held for the duration of the application;
// defer guard.Shutdown(ctx) to flush and stop the pipelines on exit.
//
// Setup fails with no lasting effect on:
//   - ErrAlreadyInitialized, when a pipeline is already installed;
//   - UnsupportedSignalError, when WithSignals requests SignalMetrics;
//   - exporter construction errors, in which case any providers already
//     built are shut down before the error is returned.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Guard, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	cfg := resolveConfig(serviceName, options)

	// Reject unsupported signals before any construction happens.
	for _, signal := range cfg.Signals {
		switch signal {
		case SignalTraces, SignalLogs:
		default:
			return nil, &UnsupportedSignalError{Signal: signal}
		}
	}

	setupMu.Lock()
	defer setupMu.Unlock()

	// Detect double initialization before spending anything on providers.
	if installed {
		return nil, ErrAlreadyInitialized
	}

	res := newResource(cfg)

	providers, err := buildProviders(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	var logProvider log.LoggerProvider
	for _, p := range providers {
		switch p.signal {
		case SignalTraces:
			if tp, ok := p.handle.(trace.TracerProvider); ok {
				otel.SetTracerProvider(tp)
			}
		case SignalLogs:
			if lp, ok := p.handle.(log.LoggerProvider); ok {
				logProvider = lp
				global.SetLoggerProvider(lp)
			}
		}
	}

	// W3C trace context propagation for distributed tracing.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger := composeLogger(cfg, logProvider)
	restoreZap = zap.ReplaceGlobals(logger)

	handleErr := options.errorHandler
	if handleErr == nil {
		handleErr = func(err error) { otel.Handle(err) }
	}

	installed = true
	return newGuard(cfg, providers, logger, handleErr), nil
}
