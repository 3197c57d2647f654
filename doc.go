// Package otelkit bootstraps OpenTelemetry export for applications that log
// through Zap.
//
// # Overview
//
// One Setup call resolves configuration, builds OTLP trace and log export
// pipelines, and installs a process-wide Zap logger that writes to the console
// and forwards records to an OTel collector. Existing zap.L() call sites and
// otel.Tracer spans work unchanged.
//
// # Usage
//
// Initialize once in main and hold the guard:
//
//	guard, err := otelkit.Setup(ctx, "my-service")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer guard.Shutdown(ctx)
//
//	zap.L().Info("goes to stdout AND the collector")
//
// Configured usage:
//
//	guard, err := otelkit.Setup(ctx, "my-service",
//	    otelkit.WithEndpoint("http://collector:4318"),
//	    otelkit.WithProtocol(otelkit.ProtocolHTTPProtobuf),
//	    otelkit.WithHeader("Authorization", "Bearer token123"),
//	    otelkit.WithResourceAttributes(attribute.String("deployment.environment", "production")),
//	    otelkit.WithExportTimeout(30*time.Second),
//	)
//
// # Configuration Precedence
//
// Each field resolves independently, highest to lowest:
//  1. Programmatic options (WithEndpoint, WithProtocol, ...)
//  2. Environment variables (OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_SERVICE_NAME, ...)
//  3. Defaults (http://localhost:4318 for HTTP, :4317 for gRPC, 30s timeout, "info")
//
// Malformed environment values fall through to the next layer; a typo in
// OTEL_EXPORTER_OTLP_PROTOCOL never aborts startup.
//
// # Lifecycle
//
// Setup installs the pipeline at most once per process. A second call fails
// with ErrAlreadyInitialized and leaves the first installation untouched.
// Guard.Shutdown flushes then shuts down every provider exactly once; repeat
// and concurrent calls are safe no-ops. Exporter errors during shutdown are
// reported through the OTel error handler, never to the caller.
//
// # Testing
//
// Use NewTestGuard for an in-memory pipeline, and ResetForTesting to
// exercise initialization paths repeatedly:
//
//	t.Cleanup(otelkit.ResetForTesting)
//	tg := otelkit.NewTestGuard()
//	_, span := tg.Tracer("test").Start(ctx, "test-span")
//	span.End()
package otelkit
