package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config defines logger configuration.
type Config struct {
	Level       string // debug, info, warn, error
	Development bool
	// Bundle is attached to every line so logs from several hosts can be
	// told apart.
	Bundle string
	// Sample thins out repeated identical lines in production, which an
	// update storm from a chatty system source would otherwise produce.
	Sample      bool
	OutputPaths []string
}

// New builds the host logger. Production writes JSON, development writes
// coloured console lines at the requested level.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig = productionEncoder()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.DisableStacktrace = !cfg.Development
	if !cfg.Sample || cfg.Development {
		zapCfg.Sampling = nil
	}
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}

	var opts []zap.Option
	if cfg.Bundle != "" {
		opts = append(opts, zap.Fields(zap.String("bundle", cfg.Bundle)))
	}
	return zapCfg.Build(opts...)
}

// Component returns a child logger named after the emitting subsystem.
func Component(logger *zap.Logger, name string) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(name)
}

func productionEncoder() zapcore.EncoderConfig {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.NameKey = "component"
	enc.MessageKey = "message"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	return enc
}
