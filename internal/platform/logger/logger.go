// Package logger builds the zap logger used by the daemon and adapts it to
// the key/value logging interface of internal/core.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bloodbank/internal/core"
)

// NewLogger builds a zap logger.
// level: debug|info|warn|error (default info); format: json|console
// (default json). A non-empty service is attached as service_name.
func NewLogger(level, format, service string) (*zap.Logger, error) {
	zapLevel := ParseLevel(level)

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	if service != "" {
		base = base.With(zap.String("service_name", service))
	}
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		base = base.With(zap.String("hostname", hostname))
	}
	return base, nil
}

// ParseLevel maps a level name to a zap level, falling back to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Adapter satisfies core.Logger on top of a sugared zap logger.
type Adapter struct {
	sugar *zap.SugaredLogger
}

var _ core.Logger = Adapter{}

// Adapt wraps l; a nil logger yields a no-op adapter.
func Adapt(l *zap.Logger) Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return Adapter{sugar: l.Sugar()}
}

func (a Adapter) Debug(msg string, args ...any) { a.sugar.Debugw(msg, args...) }
func (a Adapter) Info(msg string, args ...any)  { a.sugar.Infow(msg, args...) }
func (a Adapter) Warn(msg string, args ...any)  { a.sugar.Warnw(msg, args...) }
func (a Adapter) Error(msg string, args ...any) { a.sugar.Errorw(msg, args...) }
