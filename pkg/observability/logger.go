package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Log formats accepted by NewLogger.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// NewLogger creates a logrus logger writing to output (stderr when nil).
// level is one of debug, info, warn or error; format is "text" or "json".
func NewLogger(level, format string, output io.Writer) (*logrus.Logger, error) {
	if output == nil {
		output = os.Stderr
	}

	lvl := logrus.InfoLevel
	if level != "" {
		var err error
		lvl, err = logrus.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	logger := logrus.New()
	logger.SetOutput(output)
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", FormatText:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	return logger, nil
}

// contextKey is the type for context keys
type contextKey string

const (
	// BuildIDKey is the context key for the build ID
	BuildIDKey contextKey = "build_id"
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
)

// NewBuildID returns a fresh identifier for one site build.
func NewBuildID() string {
	return uuid.NewString()
}

// WithBuildID adds a build ID to the context
func WithBuildID(ctx context.Context, buildID string) context.Context {
	return context.WithValue(ctx, BuildIDKey, buildID)
}

// GetBuildID retrieves the build ID from context
func GetBuildID(ctx context.Context) string {
	if id, ok := ctx.Value(BuildIDKey).(string); ok {
		return id
	}
	return ""
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetLogger retrieves the logger from context, falling back to the standard
// logrus logger.
func GetLogger(ctx context.Context) *logrus.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*logrus.Logger); ok {
		return logger
	}
	return logrus.StandardLogger()
}

// FromContext returns a log entry carrying the build ID and trace context
// found in ctx.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(GetLogger(ctx))
	if id := GetBuildID(ctx); id != "" {
		entry = entry.WithField("build_id", id)
	}
	return WithTraceContext(ctx, entry)
}
