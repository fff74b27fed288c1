package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/witto13/bess-crawler/internal/clerrors"
)

// NewZapLogger builds a *zap.SugaredLogger for a cmd/ entrypoint. level
// is one of debug/info/warn/error; format is json or console, matching
// internal/config.LoggingConfig.
func NewZapLogger(level, format string) (*zap.SugaredLogger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, clerrors.ConfigurationError("logging.level", "must be debug, info, warn or error, got "+level)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, clerrors.FailedTo("build zap logger", err)
	}
	return logger.Sugar(), nil
}

// NewLogrLogger bridges a *zap.SugaredLogger to the logr.Logger
// interface, for the handful of collaborators (internal/httpx/ratelimit)
// that take a logr.Logger rather than a zap one.
func NewLogrLogger(sugared *zap.SugaredLogger) logr.Logger {
	return zapr.NewLogger(sugared.Desugar())
}
