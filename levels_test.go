package otelkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{input: "trace", want: TraceLevel},
		{input: "debug", want: zapcore.DebugLevel},
		{input: "info", want: zapcore.InfoLevel},
		{input: "warn", want: zapcore.WarnLevel},
		{input: "error", want: zapcore.ErrorLevel},
		{input: "verbose", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := LevelFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestParseLevelDirectives(t *testing.T) {
	tests := []struct {
		name       string
		directive  string
		wantLevel  zapcore.Level
		wantScopes []scopeLevel
	}{
		{
			name:      "bare level",
			directive: "debug",
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "empty defaults to info",
			directive: "",
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "default plus scope",
			directive: "info,grpc=debug",
			wantLevel: zapcore.InfoLevel,
			wantScopes: []scopeLevel{
				{scope: "grpc", level: zapcore.DebugLevel},
			},
		},
		{
			name:      "trace scope",
			directive: "warn,store=trace",
			wantLevel: zapcore.WarnLevel,
			wantScopes: []scopeLevel{
				{scope: "store", level: TraceLevel},
			},
		},
		{
			name:      "malformed segments skipped",
			directive: "bogus,=debug,grpc=notalevel,db=warn",
			wantLevel: zapcore.InfoLevel,
			wantScopes: []scopeLevel{
				{scope: "db", level: zapcore.WarnLevel},
			},
		},
		{
			name:      "last bare level wins",
			directive: "debug,warn",
			wantLevel: zapcore.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseLevelDirectives(tt.directive)
			assert.Equal(t, tt.wantLevel, d.defaultLevel)
			assert.Equal(t, tt.wantScopes, d.scopes)
		})
	}
}

func TestLevelDirectives_Enabled(t *testing.T) {
	d := parseLevelDirectives("info,grpc=warn,grpc.client=debug")

	tests := []struct {
		name   string
		logger string
		level  zapcore.Level
		want   bool
	}{
		{name: "default allows info", logger: "", level: zapcore.InfoLevel, want: true},
		{name: "default blocks debug", logger: "db", level: zapcore.DebugLevel, want: false},
		{name: "scope raises threshold", logger: "grpc", level: zapcore.InfoLevel, want: false},
		{name: "scope matches children", logger: "grpc.server", level: zapcore.InfoLevel, want: false},
		{name: "longest scope wins", logger: "grpc.client", level: zapcore.DebugLevel, want: true},
		{name: "longest scope matches children", logger: "grpc.client.stream", level: zapcore.DebugLevel, want: true},
		{name: "prefix without dot is not a scope match", logger: "grpcx", level: zapcore.InfoLevel, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.enabled(tt.logger, tt.level))
		})
	}
}

func TestFilterCore(t *testing.T) {
	inner, observed := observer.New(TraceLevel)
	core := newFilterCore(inner, parseLevelDirectives("info,grpc=debug"))
	logger := zap.New(core)

	logger.Debug("root debug dropped")
	logger.Info("root info kept")
	logger.Named("grpc").Debug("grpc debug kept")
	logger.Named("db").Debug("db debug dropped")

	messages := make([]string, 0, 2)
	for _, entry := range observed.All() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{"root info kept", "grpc debug kept"}, messages)
}

func TestFilterCore_WithPreservesFilter(t *testing.T) {
	inner, observed := observer.New(TraceLevel)
	core := newFilterCore(inner, parseLevelDirectives("warn"))
	logger := zap.New(core).With(zap.String("component", "x"))

	logger.Info("filtered out")
	logger.Warn("kept")

	require.Equal(t, 1, observed.Len())
	entry := observed.All()[0]
	assert.Equal(t, "kept", entry.Message)
	require.Len(t, entry.Context, 1)
	assert.Equal(t, "component", entry.Context[0].Key)
}
