// Package obs carries the resolver's ambient observability stack:
// structured logging and Prometheus metrics, neither of which the
// distilled resolution protocol names directly but every component above
// the wire layer uses.
package obs

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds and installs the process-global zap logger at the
// given level ("debug", "info", "warn", "error"), matching the global
// zap.L()/zap.ReplaceGlobals() usage components reach for via Named.
func InitLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// Named returns the global logger scoped to component, the same
// `zap.L().Named(...)` call every package below this one uses to log.
func Named(component string) *zap.Logger {
	return zap.L().Named(component)
}
