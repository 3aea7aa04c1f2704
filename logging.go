package repcrec

import (
	"log/slog"
	"os"
)

var logLevel = new(slog.LevelVar)

// envLogLevels maps REPCREC_LOG_LEVEL's recognized values to slog levels;
// anything else (including unset) falls through to the INFO default the
// coordinator's Info-level events (commits, aborts, site transitions) are
// emitted at.
var envLogLevels = map[string]slog.Level{
	"DEBUG": slog.LevelDebug,
	"WARN":  slog.LevelWarn,
	"ERROR": slog.LevelError,
}

// ConfigureLogging installs a slog.TextHandler as the default logger,
// used by every slog call the coordinator package makes while dispatching
// commands. The level comes from the REPCREC_LOG_LEVEL environment
// variable, defaulting to INFO when it's unset or unrecognized.
//
// Call this once at process startup if the default logging configuration
// is desired; tests and library consumers may skip it and configure
// slog themselves.
func ConfigureLogging() {
	level, ok := envLogLevels[os.Getenv("REPCREC_LOG_LEVEL")]
	if !ok {
		level = slog.LevelInfo
	}
	logLevel.Set(level)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

// SetLogLevel overrides the level set by ConfigureLogging, without
// touching the handler it installed.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}
