/*-------------------------------------------------------------------------
 *
 * logging.go
 *    Structured logging context helpers
 *
 * Provides helpers for consistent structured logging with participant,
 * time_window, iteration and mesh fields across all coupling components.
 *
 * Copyright (c) 2024-2026, precice-go, Inc. <support@precice-go.dev>
 *
 * IDENTIFICATION
 *    internal/telemetry/logging.go
 *
 *-------------------------------------------------------------------------
 */

package telemetry

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	participantKey contextKey = "participant"
	windowKey      contextKey = "time_window"
	iterationKey   contextKey = "iteration"
	meshKey        contextKey = "mesh"
)

var initialized bool

/* InitLogging configures the process-global zerolog writer */
func InitLogging(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var writer zerolog.Logger
	if strings.ToLower(format) == "console" {
		writer = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		writer = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &writer
	initialized = true
}

/* WithParticipant attaches the local participant name to the context */
func WithParticipant(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, participantKey, name)
}

/* WithWindow attaches the current time-window index to the context */
func WithWindow(ctx context.Context, window int) context.Context {
	return context.WithValue(ctx, windowKey, window)
}

/* WithIteration attaches the current implicit-iteration index to the context */
func WithIteration(ctx context.Context, iteration int) context.Context {
	return context.WithValue(ctx, iterationKey, iteration)
}

/* WithMesh attaches a mesh name to the context */
func WithMesh(ctx context.Context, mesh string) context.Context {
	return context.WithValue(ctx, meshKey, mesh)
}

/* LoggerFromContext builds a zerolog logger carrying every attached field */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	var logger zerolog.Logger
	if initialized && zerolog.DefaultContextLogger != nil {
		logger = *zerolog.DefaultContextLogger
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if v, ok := ctx.Value(participantKey).(string); ok && v != "" {
		logger = logger.With().Str("participant", v).Logger()
	}
	if v, ok := ctx.Value(windowKey).(int); ok {
		logger = logger.With().Int("time_window", v).Logger()
	}
	if v, ok := ctx.Value(iterationKey).(int); ok {
		logger = logger.With().Int("iteration", v).Logger()
	}
	if v, ok := ctx.Value(meshKey).(string); ok && v != "" {
		logger = logger.With().Str("mesh", v).Logger()
	}
	return logger
}

/* Debug logs a debug-level message with context fields */
func Debug(ctx context.Context, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	logEvent(logger.Debug(), message, fields)
}

/* Info logs an info-level message with context fields */
func Info(ctx context.Context, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	logEvent(logger.Info(), message, fields)
}

/* Warn logs a warning-level message with context fields */
func Warn(ctx context.Context, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	logEvent(logger.Warn(), message, fields)
}

/* Error logs an error-level message, attaching err, with context fields */
func Error(ctx context.Context, message string, err error, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	logEvent(event, message, fields)
}

func logEvent(event *zerolog.Event, message string, fields map[string]interface{}) {
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(message)
}
