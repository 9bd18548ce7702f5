// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package bkfdd

import "go.uber.org/zap"

// _DEBUG and _LOGLEVEL mirror the teacher package's debug switches; see
// debug.go for the build-tagged override. Only _LOGLEVEL is read: a
// positive value lowers the default logger to Debug level. GC history is
// recorded regardless of either.
var _DEBUG bool = false
var _LOGLEVEL int = 0

// newDefaultLogger returns the logger used when the caller does not supply
// one through the Logger option: a real zap logger built from zap's
// production config, which logs at Info level and above (Debug when
// _LOGLEVEL is positive), so the per-pass GC Debug messages are dropped by
// default.
func newDefaultLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if _LOGLEVEL > 0 {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		// Falling back to a discarding logger keeps New from failing only
		// because logging could not be wired up.
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// Logger is a configuration option (function) that installs a caller-supplied
// zap logger instead of the default, following the same functional-option
// shape as Nodesize or Cachesize.
func Logger(l *zap.SugaredLogger) func(*configs) {
	return func(c *configs) {
		c.logger = l
	}
}
