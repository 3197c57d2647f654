package otelkit

import (
	"strings"

	"go.uber.org/zap/zapcore"
)

// TraceLevel is a custom level below Debug for ultra-verbose logging.
// Value: -2 (Debug is -1, Info is 0)
const TraceLevel = zapcore.Level(-2)

// LevelFromString parses a level name into a zapcore.Level, supporting "trace".
func LevelFromString(level string) (zapcore.Level, error) {
	if level == "trace" {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// levelDirectives is a parsed level-filter directive string: a default level
// plus per-scope overrides keyed by zap logger name, e.g. "info,grpc=debug".
type levelDirectives struct {
	defaultLevel zapcore.Level
	scopes       []scopeLevel
}

type scopeLevel struct {
	scope string
	level zapcore.Level
}

// parseLevelDirectives parses a comma-separated directive string. Bare
// segments set the default level (last one wins); "scope=level" segments add
// per-scope overrides. Malformed segments are skipped, consistent with the
// permissive configuration policy.
func parseLevelDirectives(directive string) levelDirectives {
	d := levelDirectives{defaultLevel: zapcore.InfoLevel}

	for _, segment := range strings.Split(directive, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		scope, name, scoped := strings.Cut(segment, "=")
		if !scoped {
			if level, err := LevelFromString(segment); err == nil {
				d.defaultLevel = level
			}
			continue
		}
		scope = strings.TrimSpace(scope)
		level, err := LevelFromString(strings.TrimSpace(name))
		if scope == "" || err != nil {
			continue
		}
		d.scopes = append(d.scopes, scopeLevel{scope: scope, level: level})
	}

	return d
}

// enabled reports whether a record from the named logger at the given level
// passes the filter. The longest matching scope wins; scope "grpc" matches
// logger names "grpc" and "grpc.*".
func (d levelDirectives) enabled(loggerName string, level zapcore.Level) bool {
	threshold := d.defaultLevel
	matched := -1
	for _, s := range d.scopes {
		if len(s.scope) <= matched {
			continue
		}
		if loggerName == s.scope || strings.HasPrefix(loggerName, s.scope+".") {
			threshold = s.level
			matched = len(s.scope)
		}
	}
	return level >= threshold
}

// minLevel is the most permissive threshold across default and all scopes.
func (d levelDirectives) minLevel() zapcore.Level {
	min := d.defaultLevel
	for _, s := range d.scopes {
		if s.level < min {
			min = s.level
		}
	}
	return min
}

// filterCore gates a wrapped core on the parsed directives. It is the
// outermost layer: records below threshold are discarded before the console
// or export cores see them.
type filterCore struct {
	inner      zapcore.Core
	directives levelDirectives
}

func newFilterCore(inner zapcore.Core, directives levelDirectives) zapcore.Core {
	return &filterCore{inner: inner, directives: directives}
}

// Enabled answers for the most permissive scope; Check applies the per-scope
// decision once the logger name is known.
func (c *filterCore) Enabled(level zapcore.Level) bool {
	return level >= c.directives.minLevel()
}

func (c *filterCore) With(fields []zapcore.Field) zapcore.Core {
	return &filterCore{inner: c.inner.With(fields), directives: c.directives}
}

func (c *filterCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.directives.enabled(ent.LoggerName, ent.Level) {
		return ce
	}
	return c.inner.Check(ent, ce)
}

func (c *filterCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.inner.Write(ent, fields)
}

func (c *filterCore) Sync() error {
	return c.inner.Sync()
}
