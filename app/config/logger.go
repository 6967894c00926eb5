package config

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger returns a development logger for local environments and a JSON production
// logger otherwise.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsLocal() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	return logger.With(zap.String("app", "postpanel"), zap.String("env", cfg.AppEnv)), nil
}
