// Package logger builds the zap logger for the posttags command and carries
// it through a context to the extraction run.
//
// Logs always go to stderr: stdout is reserved for the rendered front page
// or ranking, so output can be piped or redirected into the post file.
package logger

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging environments accepted by NewLogger
const (
	EnvLocal = "local" // console, no timestamps, debug
	EnvDev   = "dev"   // console with timestamps, debug
	EnvProd  = "prod"  // JSON, info
)

// NewLogger builds the logger for env. A non-empty level (debug, info,
// warn, error) replaces the environment's default level.
func NewLogger(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch env {
	case EnvProd:
		cfg = zap.NewProductionConfig()
	case EnvLocal, EnvDev:
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
		if env == EnvLocal {
			cfg.EncoderConfig.TimeKey = ""
		}
	default:
		return nil, fmt.Errorf("unknown logging environment %q, want %s, %s or %s", env, EnvLocal, EnvDev, EnvProd)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.Named("posttags"), nil
}

type runLoggerKey struct{}

// ContextWithLogger attaches l to ctx for the extraction run
func ContextWithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, runLoggerKey{}, l)
}

// FromContext returns the run logger, or a no-op logger when the caller
// attached none. Library callers that never configure logging stay silent.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(runLoggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}
