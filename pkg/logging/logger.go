// Package logging provides structured logging for featuresync using zerolog.
// Console output is used when stderr is a terminal and JSON otherwise, so the
// same binary can run interactively or from a scheduled export job.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("layer", "Southeast_BusinessDevelopment_Projects").Msg("Loading features")
//
//	ctx := logging.WithLayer(context.Background(), "Update_BusinessDev_Layer")
//	logging.FromContext(ctx).Debug().Int("rows", 42).Msg("Staged source rows")
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// defaultLogger is built from the LOG_* environment at startup.
var defaultLogger = NewLoggerFromConfig(envConfig())

// Default returns the default global logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault sets the default global logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger // Also update zerolog's global logger
}

// Debug starts a new debug level log event.
func Debug() *zerolog.Event {
	return defaultLogger.Debug()
}

// Info starts a new info level log event.
func Info() *zerolog.Event {
	return defaultLogger.Info()
}

// Warn starts a new warning level log event.
func Warn() *zerolog.Event {
	return defaultLogger.Warn()
}

// Error starts a new error level log event.
func Error() *zerolog.Event {
	return defaultLogger.Error()
}
