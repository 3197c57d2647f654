package otelkit

import (
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultGRPCEndpoint   = "http://localhost:4317"
	defaultHTTPEndpoint   = "http://localhost:4318"
	defaultExportTimeout  = 30 * time.Second
	defaultLevelDirective = "info"
	defaultConsoleFormat  = "console"
	defaultShutdownLimit  = 5 * time.Second

	envKeyServiceName = "otel_service_name"
	envKeyEndpoint    = "otel_exporter_otlp_endpoint"
	envKeyProtocol    = "otel_exporter_otlp_protocol"
	envKeyHeaders     = "otel_exporter_otlp_headers"
	envKeyTimeout     = "otel_exporter_otlp_timeout"
	envKeyLogLevel    = "otel_log_level"
)

// Config is the fully resolved configuration produced once per Setup call.
// It merges programmatic options, OTEL_* environment variables, and defaults;
// every field has exactly one value and the struct is never mutated afterward.
type Config struct {
	ServiceName        string
	Endpoint           string
	Protocol           Protocol
	Headers            []Header
	ResourceAttributes []attribute.KeyValue
	ExportTimeout      time.Duration
	LevelDirective     string
	ConsoleFormat      string
	Signals            []Signal
	ShutdownTimeout    time.Duration
}

// resolveConfig merges the three configuration layers. Per field the first
// present value wins: programmatic, then environment, then default. Malformed
// environment values count as absent rather than failing; a typo in an env
// var must not abort startup.
func resolveConfig(serviceName string, opts *Options) *Config {
	k := koanf.New(".")
	// Environment layer. OTEL_-prefixed variables only; keys are lowercased
	// verbatim (OTEL_SERVICE_NAME -> otel_service_name).
	_ = k.Load(env.Provider("OTEL_", ".", strings.ToLower), nil)

	cfg := &Config{
		ServiceName:        serviceName,
		ResourceAttributes: opts.resourceAttributes,
	}

	if name := k.String(envKeyServiceName); name != "" {
		cfg.ServiceName = name
	}

	// Protocol must resolve before the endpoint default is chosen; the default
	// port depends on it. All other fields resolve independently.
	cfg.Protocol = opts.protocol
	if cfg.Protocol == "" {
		cfg.Protocol = parseProtocol(k.String(envKeyProtocol))
	}
	if cfg.Protocol == "" {
		cfg.Protocol = ProtocolHTTPProtobuf
	}

	cfg.Endpoint = opts.endpoint
	if cfg.Endpoint == "" {
		cfg.Endpoint = k.String(envKeyEndpoint)
	}
	if cfg.Endpoint == "" {
		if cfg.Protocol == ProtocolGRPC {
			cfg.Endpoint = defaultGRPCEndpoint
		} else {
			cfg.Endpoint = defaultHTTPEndpoint
		}
	}

	// Environment headers first, then programmatic headers override them.
	cfg.Headers = parseHeaderList(k.String(envKeyHeaders))
	for _, h := range opts.headers {
		cfg.Headers = setHeader(cfg.Headers, h.Key, h.Value)
	}

	cfg.ExportTimeout = opts.exportTimeout
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = parseTimeoutMillis(k.String(envKeyTimeout))
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = defaultExportTimeout
	}

	cfg.LevelDirective = opts.levelDirective
	if cfg.LevelDirective == "" {
		cfg.LevelDirective = k.String(envKeyLogLevel)
	}
	if cfg.LevelDirective == "" {
		cfg.LevelDirective = defaultLevelDirective
	}

	cfg.ConsoleFormat = opts.consoleFormat
	if cfg.ConsoleFormat != "console" && cfg.ConsoleFormat != "json" {
		cfg.ConsoleFormat = defaultConsoleFormat
	}

	cfg.Signals = opts.signals
	if len(cfg.Signals) == 0 {
		cfg.Signals = []Signal{SignalTraces, SignalLogs}
	}

	cfg.ShutdownTimeout = opts.shutdownTimeout
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownLimit
	}

	return cfg
}

// parseProtocol returns "" for anything but the three recognized values.
func parseProtocol(s string) Protocol {
	switch Protocol(s) {
	case ProtocolGRPC, ProtocolHTTPProtobuf, ProtocolHTTPJSON:
		return Protocol(s)
	default:
		return ""
	}
}

// parseTimeoutMillis parses an integer millisecond value, 0 if malformed.
func parseTimeoutMillis(s string) time.Duration {
	if s == "" {
		return 0
	}
	ms, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// parseHeaderList parses the OTLP "k=v,k=v" header syntax. Segments without
// "=" or with an empty key are dropped. Duplicate keys: last occurrence wins,
// insertion order of the first occurrence is preserved.
func parseHeaderList(s string) []Header {
	if s == "" {
		return nil
	}
	var headers []Header
	for _, segment := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers = setHeader(headers, key, strings.TrimSpace(value))
	}
	return headers
}
