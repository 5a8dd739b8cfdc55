package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a zap logger. "prod"/"production" selects the JSON production
// config; anything else the console development config.
func New(mode string) (*zap.Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}
