// Package logging provides the structured logger used by the atlas
// and planning packages: named loggers, leveled output,
// context-aware variants, and sublogger derivation, without the
// network-appender and remote-sink machinery that belongs to a
// surrounding robot framework rather than the planning core.
package logging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging severity, ordered DEBUG < INFO < WARN < ERROR.
type Level int8

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "Debug"
	case INFO:
		return "Info"
	case WARN:
		return "Warn"
	case ERROR:
		return "Error"
	default:
		return "Unknown"
	}
}

// LevelFromString parses a case-insensitive level name, accepting
// "warning" as an alias for WARN.
func LevelFromString(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// MarshalJSON implements json.Marshaler.
func (l Level) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Level) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid level JSON %q", data)
	}
	parsed, err := LevelFromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Logger is the contract atlas and planning depend on. Callers inject
// one, usually NewLogger("atlas") or NewTestLogger(); the only logger
// the core builds itself is the NewBlankLogger fallback
// NewAtlasStateSpace uses when given nil.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Context-aware variants are identical to the non-C forms today;
	// they exist so call sites can thread a context through without a
	// signature change the day request-scoped fields are added.
	CDebugf(ctx context.Context, template string, args ...interface{})
	CInfof(ctx context.Context, template string, args ...interface{})
	CWarnf(ctx context.Context, template string, args ...interface{})
	CErrorf(ctx context.Context, template string, args ...interface{})

	// Sublogger returns a child logger namespaced under this one,
	// e.g. NewLogger("atlas").Sublogger("chart") logs as "atlas.chart".
	Sublogger(name string) Logger

	// Named returns this logger's fully qualified name.
	Named() string

	Level() Level
	SetLevel(Level)
}

type impl struct {
	name  string
	level *zap.AtomicLevel
	sugar *zap.SugaredLogger
}

// NewLogger returns a production logger writing to stdout at INFO.
func NewLogger(name string) Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(zapWriter{}), level)
	zl := zap.New(core).Named(name).Sugar()
	return &impl{name: name, level: &level, sugar: zl}
}

// NewTestLogger returns a logger at DEBUG level suitable for unit
// tests. It takes no *testing.T so this package stays free of a
// dependency on the testing package.
func NewTestLogger() Logger {
	l := NewLogger("test").(*impl)
	l.SetLevel(DEBUG)
	return l
}

// NewBlankLogger discards all output; useful where a Logger is
// required but its output is irrelevant (benchmarks, fuzzing).
func NewBlankLogger(name string) Logger {
	level := zap.NewAtomicLevelAt(zapcore.FatalLevel + 1)
	core := zapcore.NewNopCore()
	zl := zap.New(core).Named(name).Sugar()
	return &impl{name: name, level: &level, sugar: zl}
}

func (l *impl) Debugf(template string, args ...interface{}) { l.sugar.Debugf(template, args...) }
func (l *impl) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *impl) Warnf(template string, args ...interface{})  { l.sugar.Warnf(template, args...) }
func (l *impl) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }

func (l *impl) Debugw(msg string, kv ...interface{}) { l.sugar.Debugw(msg, kv...) }
func (l *impl) Infow(msg string, kv ...interface{})  { l.sugar.Infow(msg, kv...) }
func (l *impl) Warnw(msg string, kv ...interface{})  { l.sugar.Warnw(msg, kv...) }
func (l *impl) Errorw(msg string, kv ...interface{}) { l.sugar.Errorw(msg, kv...) }

func (l *impl) CDebugf(_ context.Context, template string, args ...interface{}) { l.Debugf(template, args...) }
func (l *impl) CInfof(_ context.Context, template string, args ...interface{})  { l.Infof(template, args...) }
func (l *impl) CWarnf(_ context.Context, template string, args ...interface{})  { l.Warnf(template, args...) }
func (l *impl) CErrorf(_ context.Context, template string, args ...interface{}) { l.Errorf(template, args...) }

func (l *impl) Sublogger(name string) Logger {
	// Sharing the parent's core keeps the parent's output sink and
	// atomic level, so SetLevel on either one filters both.
	return &impl{name: l.name + "." + name, level: l.level, sugar: l.sugar.Named(name)}
}

func (l *impl) Named() string { return l.name }

func (l *impl) Level() Level { return zapToLevel(l.level.Level()) }

func (l *impl) SetLevel(lvl Level) { l.level.SetLevel(lvl.zapLevel()) }

func zapToLevel(zl zapcore.Level) Level {
	switch zl {
	case zapcore.DebugLevel:
		return DEBUG
	case zapcore.WarnLevel:
		return WARN
	case zapcore.ErrorLevel:
		return ERROR
	default:
		return INFO
	}
}

// zapWriter adapts stdout to zapcore.WriteSyncer without pulling in
// os.Stdout's Sync() quirks on every platform.
type zapWriter struct{}

func (zapWriter) Write(p []byte) (int, error) {
	return fmt.Print(string(p))
}

func (zapWriter) Sync() error { return nil }
