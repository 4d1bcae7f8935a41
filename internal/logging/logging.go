// Package logging builds zap loggers and adapts them to storyblok.Logger.
package logging

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fivetwenty-io/storyblok-docs/internal/constants"
)

// New creates a production logger, or a development logger with colored
// console output when development is set. level is one of debug, info, warn,
// error; empty means info.
func New(level string, development bool) (*zap.Logger, error) {
	atomic, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(orDefault(level, "info"))))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionConfig()
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config.Level = atomic

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

// Adapter implements storyblok.Logger on top of zap.
type Adapter struct {
	logger *zap.Logger
}

// NewAdapter wraps logger. A nil logger discards everything.
func NewAdapter(logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

// Debug implements storyblok.Logger.
func (a *Adapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.Debug(msg, toZap(fields)...)
}

// Info implements storyblok.Logger.
func (a *Adapter) Info(msg string, fields map[string]interface{}) {
	a.logger.Info(msg, toZap(fields)...)
}

// Warn implements storyblok.Logger.
func (a *Adapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.Warn(msg, toZap(fields)...)
}

// Error implements storyblok.Logger.
func (a *Adapter) Error(msg string, fields map[string]interface{}) {
	a.logger.Error(msg, toZap(fields)...)
}

// Zap returns the wrapped logger.
func (a *Adapter) Zap() *zap.Logger {
	return a.logger.WithOptions(zap.AddCallerSkip(-1))
}

// secretKeys are never written in clear text.
var secretKeys = map[string]bool{
	"token":         true,
	"access_token":  true,
	"preview_token": true,
	"secret":        true,
}

// toZap converts fields in key order so output is stable.
func toZap(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))

	for _, key := range keys {
		value := fields[key]
		if secretKeys[strings.ToLower(key)] {
			value = constants.MaskedSecret
		}

		if err, ok := value.(error); ok {
			out = append(out, zap.NamedError(key, err))

			continue
		}

		out = append(out, zap.Any(key, value))
	}

	return out
}
