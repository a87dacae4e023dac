// Package logger builds the human-facing logger of the command line tool.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the minimum level the CLI logger prints (debug, info, warn, error).
type Level string

// New builds a console logger writing to stderr, keeping stdout free for
// command output, and replaces the zap globals.
func New(level Level) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	text := strings.TrimSpace(string(level))
	if text == "" {
		text = "warn"
	}
	if err := cfg.Level.UnmarshalText([]byte(text)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", text, err)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}
