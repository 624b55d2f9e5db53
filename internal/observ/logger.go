// Package observ wires up structured logging.
package observ

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger for CLI use. Level is a zap level name
// ("debug", "info", "warn", ...); unknown names fall back to info.
func NewLogger(level string, verbose bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.DisableStacktrace = true
	config.DisableCaller = true

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		zapLevel = zapcore.InfoLevel
	}
	if verbose && zapLevel > zapcore.DebugLevel {
		zapLevel = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	return config.Build()
}
