package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected zapcore.Level
	}{
		{name: "debug", input: "debug", expected: zapcore.DebugLevel},
		{name: "info", input: "info", expected: zapcore.InfoLevel},
		{name: "warn", input: "warn", expected: zapcore.WarnLevel},
		{name: "warning alias", input: "warning", expected: zapcore.WarnLevel},
		{name: "error", input: "error", expected: zapcore.ErrorLevel},
		{name: "mixed case", input: "DeBuG", expected: zapcore.DebugLevel},
		{name: "empty defaults to info", input: "", expected: zapcore.InfoLevel},
		{name: "unknown defaults to info", input: "verbose", expected: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestPackageFuncsBeforeInitialize(t *testing.T) {
	// The zero-value logger is a no-op; logging must not panic.
	Debug("debug")
	Infow("structured", "key", "value")
	Warnf("warn %d", 1)
	Error("error")
	Sync()
}

func TestInitializeWithLogFile(t *testing.T) {
	path := t.TempDir() + "/run.log"

	require.NoError(t, Initialize(WithLevel(zapcore.DebugLevel), WithLogFile(path)))
	Infof("probe %s finished", "udp://tracker.example:80")
	Sync()

	assert.FileExists(t, path)
}
