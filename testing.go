package otelkit

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ResetForTesting clears the process-wide installation slot so a test suite
// can exercise Setup repeatedly, including double-initialization paths.
// It restores the previous global zap logger. Never call this outside tests.
func ResetForTesting() {
	setupMu.Lock()
	defer setupMu.Unlock()

	installed = false
	if restoreZap != nil {
		restoreZap()
		restoreZap = nil
	}
}

// TestGuard is a Guard over in-memory recorders instead of OTLP exporters.
type TestGuard struct {
	*Guard

	// SpanRecorder captures every ended span.
	SpanRecorder *tracetest.SpanRecorder
	// ObservedLogs captures every record the composed logger emits.
	ObservedLogs *observer.ObservedLogs

	tracerProvider *sdktrace.TracerProvider
}

// NewTestGuard creates a guard whose trace pipeline records in memory and
// whose logger is observable. Nothing is installed globally, so tests stay
// isolated from each other.
func NewTestGuard() *TestGuard {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	core, observed := observer.New(TraceLevel)
	logger := zap.New(core)

	cfg := resolveConfig("test-service", &Options{})
	guard := newGuard(cfg,
		[]ownedProvider{{signal: SignalTraces, handle: tp}},
		logger,
		func(error) {},
	)

	return &TestGuard{
		Guard:          guard,
		SpanRecorder:   recorder,
		ObservedLogs:   observed,
		tracerProvider: tp,
	}
}

// Tracer returns a tracer bound to the recording provider.
func (t *TestGuard) Tracer(name string) oteltrace.Tracer {
	return t.tracerProvider.Tracer(name)
}

// Spans returns all recorded spans.
func (t *TestGuard) Spans() []sdktrace.ReadOnlySpan {
	return t.SpanRecorder.Ended()
}

// SpanByName finds a recorded span by name, or nil if not found.
func (t *TestGuard) SpanByName(name string) sdktrace.ReadOnlySpan {
	for _, span := range t.Spans() {
		if span.Name() == name {
			return span
		}
	}
	return nil
}
