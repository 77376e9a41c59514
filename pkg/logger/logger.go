// Package logger provides structured logging built on Uber Zap.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logger configuration
type Config struct {
	Level       string
	Format      string
	Development bool
	OutputPaths []string
}

// New creates a logger together with the atomic level that controls it,
// so the level can be changed at runtime when configuration is reloaded.
func New(cfg Config) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	var encoderConfig zapcore.EncoderConfig
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	writeSyncer, _, err := zap.Open(outputPaths...)
	if err != nil {
		return nil, level, fmt.Errorf("failed to open log outputs: %w", err)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	options := []zap.Option{zap.AddCaller()}
	if cfg.Development {
		options = append(options, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return zap.New(core, options...), level, nil
}

// SetLevel parses text and applies it to level. Unknown levels are rejected
// and leave the current level untouched.
func SetLevel(level zap.AtomicLevel, text string) error {
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(text)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", text, err)
	}
	level.SetLevel(parsed)
	return nil
}

func parseLevel(text string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}
