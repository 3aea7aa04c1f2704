package repcrec

import (
	"log/slog"
	"os"
	"testing"
)

func TestConfigureLoggingReadsEnvLevel(t *testing.T) {
	t.Setenv("REPCREC_LOG_LEVEL", "DEBUG")
	ConfigureLogging()
	if logLevel.Level() != slog.LevelDebug {
		t.Fatalf("expected DEBUG level, got %v", logLevel.Level())
	}

	os.Unsetenv("REPCREC_LOG_LEVEL")
	ConfigureLogging()
	if logLevel.Level() != slog.LevelInfo {
		t.Fatalf("expected default INFO level, got %v", logLevel.Level())
	}
}
