// Package logging builds the zap loggers used by the ecs tools.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/plus3/ignite/ecs"
)

// New builds a logger from settings. An unparsable level falls back to info.
// Format "json" selects the production encoder; anything else gets a compact
// colored console encoder. Entries go to settings.Output when set.
func New(settings ecs.LoggingSettings) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(settings.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if settings.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cfg.EncoderConfig.ConsoleSeparator = "  "
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	if settings.Output != "" {
		cfg.OutputPaths = []string{settings.Output}
		cfg.ErrorOutputPaths = []string{settings.Output}
	}

	return cfg.Build()
}
