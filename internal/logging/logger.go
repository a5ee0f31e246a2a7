// Package logging builds the zap loggers used across actiond: JSON or
// console output, optional OpenTelemetry log export, sampling that never
// drops errors, and correlation fields carried on the context.
package logging

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceLevel sits below Debug. Per-sentence extraction detail is logged here.
const TraceLevel = zapcore.Level(-2)

// instrumentationScope names the OTEL logger that receives bridged entries.
const instrumentationScope = "github.com/fyrsmithlabs/actiond"

// NewLogger builds a logger from cfg. provider is only used when
// cfg.Output.OTEL is set and may be nil otherwise.
func NewLogger(cfg *Config, provider log.LoggerProvider) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var cores []zapcore.Core
	if cfg.Output.Stdout {
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(os.Stdout), cfg.Level))
	}
	if cfg.Output.Stderr {
		cores = append(cores, zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(os.Stderr), cfg.Level))
	}
	if cfg.Output.OTEL {
		if provider == nil {
			return nil, errors.New("otel output enabled without a logger provider")
		}
		cores = append(cores, otelzap.NewCore(instrumentationScope, otelzap.WithLoggerProvider(provider)))
	}

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller.Enabled {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(cfg.Caller.Skip))
	}

	logger := zap.New(newSampledCore(zapcore.NewTee(cores...), cfg.Sampling), opts...)
	for k, v := range cfg.Fields {
		logger = logger.With(zap.String(k, v))
	}
	return logger, nil
}

func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = encodeLevel(format == "console")

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}

// encodeLevel prints TraceLevel as "trace" instead of zap's "Level(-2)".
func encodeLevel(color bool) zapcore.LevelEncoder {
	base := zapcore.LowercaseLevelEncoder
	if color {
		base = zapcore.CapitalColorLevelEncoder
	}
	return func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		if l == TraceLevel {
			if color {
				enc.AppendString("TRACE")
			} else {
				enc.AppendString("trace")
			}
			return
		}
		base(l, enc)
	}
}

// ParseLevel parses a level name. "trace" selects TraceLevel.
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.EqualFold(level, "trace") {
		return TraceLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel, err
	}
	return l, nil
}

// Sync flushes logger, ignoring the EINVAL/ENOTTY errors Linux returns when
// syncing a terminal.
func Sync(logger *zap.Logger) error {
	err := logger.Sync()
	var errno syscall.Errno
	if errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY) {
		return nil
	}
	return err
}
