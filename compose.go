package otelkit

import (
	"errors"
	"os"
	"syscall"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// scopeName is the instrumentation scope reported for bridged log records.
const scopeName = "github.com/fyrsmithlabs/otelkit"

// composeLogger builds the process-wide zap logger. Layering, outermost
// first: level-filter directives, then a tee of the console core (always
// present) and the OTel bridge core (when a log provider is enabled).
func composeLogger(cfg *Config, logProvider log.LoggerProvider) *zap.Logger {
	cores := make([]zapcore.Core, 0, 2)

	consoleCore := zapcore.NewCore(
		newEncoder(cfg.ConsoleFormat),
		zapcore.Lock(zapcore.AddSync(os.Stdout)),
		TraceLevel,
	)
	cores = append(cores, consoleCore)

	if logProvider != nil {
		cores = append(cores, otelzap.NewCore(scopeName,
			otelzap.WithLoggerProvider(logProvider),
		))
	}

	core := cores[0]
	if len(cores) > 1 {
		core = zapcore.NewTee(cores...)
	}
	core = newFilterCore(core, parseLevelDirectives(cfg.LevelDirective))

	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// newEncoder creates a console or JSON encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "json" {
		return zapcore.NewJSONEncoder(encoderCfg)
	}
	return zapcore.NewConsoleEncoder(encoderCfg)
}

// syncLogger flushes buffered log entries, swallowing the harmless errors
// that syncing stdout returns on Linux (EINVAL or ENOTTY).
func syncLogger(logger *zap.Logger) error {
	err := logger.Sync()
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
