// Package logging builds the process-wide structured logger.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/mertakgul/depscope/internal/config"
)

// New creates a logrus logger from the log configuration. Unknown levels
// fall back to info rather than failing startup.
func New(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
