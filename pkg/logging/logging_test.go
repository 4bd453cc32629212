package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featuresync/pkg/logging"
)

func restoreDefault(t *testing.T) {
	t.Helper()
	original := *logging.Default()
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(level)
	})
}

func TestDefaultLogger(t *testing.T) {
	restoreDefault(t)

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Warn().Msg("warning message")

	output := buf.String()
	if !strings.Contains(output, "info message") {
		t.Errorf("Expected info message in output, got: %s", output)
	}
	if strings.Contains(output, "debug message") {
		t.Errorf("Debug message should be filtered, got: %s", output)
	}
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithLayer(ctx, "Southeast_BusinessDevelopment_Projects")
	ctx = logging.WithProject(ctx, "Oak Ridge Phase 2")
	ctx = logging.WithOperation(ctx, "append")

	logging.FromContext(ctx).Info().Msg("appended feature")

	testLogger.AssertContains(t, `"layer":"Southeast_BusinessDevelopment_Projects"`)
	testLogger.AssertContains(t, `"project":"Oak Ridge Phase 2"`)
	testLogger.AssertContains(t, `"operation":"append"`)
	testLogger.AssertContains(t, "appended feature")
}

func TestRunID(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRunID(ctx, "run-123")

	assert.Equal(t, "run-123", logging.RunID(ctx))
	assert.Equal(t, "", logging.RunID(context.Background()))

	logging.FromContext(ctx).Info().Msg("started")
	testLogger.AssertContains(t, `"run_id":"run-123"`)
}

func TestFromContextDefaults(t *testing.T) {
	//nolint:staticcheck // nil context is handled explicitly
	assert.Same(t, logging.Default(), logging.FromContext(nil))
	assert.Same(t, logging.Default(), logging.FromContext(context.Background()))
}

func TestNewLoggerFromConfig(t *testing.T) {
	restoreDefault(t)

	t.Run("json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:  "debug",
			Format: "json",
			Output: path,
			Fields: map[string]any{"app": "featuresync"},
		})
		logger.Info().Msg("test message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "test message")
		assert.Contains(t, string(content), `"app":"featuresync"`)
	})

	t.Run("configure filters by level", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.log")
		logging.Configure(&logging.Config{Level: "warn", Format: "json", Output: path})

		logging.Info().Msg("info message")
		logging.Warn().Msg("warn message")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(content), "info message")
		assert.Contains(t, string(content), "warn message")
	})

	t.Run("console format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync.log")
		logger := logging.NewLoggerFromConfig(&logging.Config{
			Level:   "info",
			Format:  "console",
			Output:  path,
			NoColor: true,
		})
		logger.Info().Str("key", "value").Msg("console test")

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "console test")
		assert.Contains(t, string(content), "key=value")
	})

	t.Run("discard output with nil config", func(t *testing.T) {
		logger := logging.NewLoggerFromConfig(&logging.Config{Output: "discard", Format: "auto"})
		logger.Info().Msg("dropped")
		assert.NotNil(t, logging.NewLoggerFromConfig(nil))
	})
}

func TestConfigureFromEnv(t *testing.T) {
	restoreDefault(t)
	path := filepath.Join(t.TempDir(), "env.log")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_OUTPUT", path)
	t.Setenv("LOG_FIELDS", "site=stl, job=nightly")

	logging.ConfigureFromEnv()
	logging.Warn().Msg("hidden")
	logging.Error().Msg("visible")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "hidden")
	assert.Contains(t, string(content), "visible")
	assert.Contains(t, string(content), `"site":"stl"`)
	assert.Contains(t, string(content), `"job":"nightly"`)
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)
	logging.Info().Str("layer", "x").Msg("captured line")
	captured.AssertContains(t, "captured line")
	captured.AssertNotContains(t, "never logged")
	assert.Len(t, captured.Lines(), 1)

	entries := captured.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0]["layer"])
	assert.Equal(t, "info", entries[0]["level"])
}
