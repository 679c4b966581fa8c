// Package logging builds the process-wide zap logger from configuration.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps a config level string to a zap level. An empty string
// means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a production logger at the given level.
func New(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// FromConfig builds a logger from the config level string. verbose forces
// debug regardless of the configured level.
func FromConfig(level string, verbose bool) (*zap.Logger, error) {
	if verbose {
		return New(zapcore.DebugLevel)
	}
	parsed, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return New(parsed)
}
