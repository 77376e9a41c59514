package gorm

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// LogWriter routes GORM log output to zap
type LogWriter struct {
	logger *zap.Logger
}

// Printf implements the logger.Writer interface
func (w *LogWriter) Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	switch {
	case strings.Contains(msg, "SLOW SQL"):
		w.logger.Warn("GORM slow query", zap.String("message", msg))
	case strings.Contains(msg, "error"), strings.Contains(msg, "ERROR"):
		w.logger.Error("GORM error", zap.String("message", msg))
	default:
		w.logger.Debug("GORM log", zap.String("message", msg))
	}
}

// NewLogger creates a GORM logger writing to zap. level is one of
// debug, info, warn, error or silent.
func NewLogger(log *zap.Logger, level string, slowThreshold time.Duration) logger.Interface {
	logLevel := logger.Silent
	switch level {
	case "debug":
		logLevel = logger.Info
	case "info", "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	if slowThreshold <= 0 {
		slowThreshold = 200 * time.Millisecond
	}

	return logger.New(
		&LogWriter{logger: log.Named("gorm")},
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
