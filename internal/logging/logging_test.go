package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The package loggers are global, so these tests run sequentially and
// restore the default outputs when they finish.

func TestSetOutputCapturesRecords(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human, slog.LevelInfo)
	defer Init(slog.LevelInfo)

	Structured().Info("event published", "topic", "myhome/events")
	HumanReadable().Warn("broker unreachable")

	var record map[string]any
	require.NoError(t, json.Unmarshal(structured.Bytes(), &record))
	assert.Equal(t, "event published", record["msg"])
	assert.Equal(t, "myhome/events", record["topic"])
	assert.Contains(t, human.String(), "broker unreachable")
}

func TestCustomLevelNames(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human, LevelTrace)
	defer Init(slog.LevelInfo)

	Structured().Log(context.Background(), LevelTrace, "tracing evaluation pass")
	Structured().Log(context.Background(), LevelFatal, "unrecoverable")

	out := structured.String()
	assert.Contains(t, out, `"level":"TRACE"`)
	assert.Contains(t, out, `"level":"FATAL"`)
}

func TestSetLevelAffectsExistingLoggers(t *testing.T) {
	var structured, human bytes.Buffer
	SetOutput(&structured, &human, slog.LevelInfo)
	defer Init(slog.LevelInfo)

	logger := ForService("tracker")
	logger.Debug("suppressed")
	assert.Empty(t, structured.String())

	SetLevel(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, CurrentLevel())

	logger.Debug("visible")
	assert.Contains(t, structured.String(), "visible")
}

func TestNewFileLoggerWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mqtt.log")

	logger, closer, err := NewFileLogger(path, "mqtt", slog.LevelInfo)
	require.NoError(t, err)

	logger.Info("connected", "broker", "tcp://localhost:1883")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "connected", record["msg"])
	assert.Equal(t, "mqtt", record["service"])
	assert.Equal(t, "tcp://localhost:1883", record["broker"])
}
