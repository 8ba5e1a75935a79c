// Package logging builds the zap logger shared by the certgen binary.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger for level. "debug" and "trace" select a development
// config at debug level; "warn" and "error" a production config at that
// level; anything else, including empty, production at info.
// The caller should defer Sync.
func New(level string) (*zap.Logger, error) {
	switch level {
	case "debug", "trace":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	case "warn", "error":
		cfg := zap.NewProductionConfig()
		lvl, _ := zapcore.ParseLevel(level)
		cfg.Level = zap.NewAtomicLevelAt(lvl)
		return cfg.Build()
	}
	return zap.NewProduction()
}

// Sync flushes l, ignoring the error stderr returns on some platforms.
func Sync(l *zap.Logger) {
	_ = l.Sync()
}
