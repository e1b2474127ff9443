// Package logging builds the zap logger shared by rulebook commands.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the logger
type Options struct {
	// Verbose enables debug output; otherwise only warnings and errors are logged
	Verbose bool

	// Output receives log lines. Nil means stderr.
	Output io.Writer
}

// Level returns the minimum level for the options
func (o Options) Level() zapcore.Level {
	if o.Verbose {
		return zapcore.DebugLevel
	}
	return zapcore.WarnLevel
}

// New builds a console-encoded logger from the production config
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.Level = zap.NewAtomicLevelAt(opts.Level())
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.DisableStacktrace = !opts.Verbose

	if opts.Output == nil {
		logger, err := config.Build()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return logger, nil
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(config.EncoderConfig),
		zapcore.AddSync(opts.Output),
		config.Level,
	)
	return zap.New(core), nil
}

// OrNop returns logger, or a no-op logger when it is nil
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
