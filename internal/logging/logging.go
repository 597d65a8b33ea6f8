// Package logging builds the zap loggers used across vudrive.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/torosent/vudrive/internal/metrics"
)

// New returns a logger writing to w at the given level. format is
// "console" or "json".
func New(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core), nil
}

// FailureLogger logs every failed request outcome at warn level.
type FailureLogger struct {
	log *zap.Logger
}

func NewFailureLogger(log *zap.Logger) *FailureLogger {
	return &FailureLogger{log: log.Named("request")}
}

func (f *FailureLogger) LogFailure(o metrics.Outcome) {
	fields := []zap.Field{
		zap.Int("worker", o.Worker),
		zap.String("kind", metrics.FriendlyErrorName(string(o.ErrorKind))),
		zap.Duration("latency", o.Latency),
	}
	if o.StatusCode > 0 {
		fields = append(fields, zap.Int("status", o.StatusCode))
	}
	if o.Err != nil {
		fields = append(fields, zap.Error(o.Err))
	}
	f.log.Warn("request failed", fields...)
}
