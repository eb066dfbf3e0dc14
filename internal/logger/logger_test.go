package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	Setup("development", "debug", &buf)
	return &buf
}

func TestLogger_AttributesAndLevels(t *testing.T) {
	buf := captureDefault(t)

	log := New("contracts").File("contract_handler").Function("create")
	log.Debug("dbg", "a", 1)
	log.Info("inf", "b", 2)
	log.Warn("wrn", "c", 3)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG", "level=INFO", "level=WARN",
		"package=contracts", "file=contract_handler", "function=create",
		"a=1", "b=2", "c=3",
	} {
		assert.Contains(t, out, want)
	}
}

func TestLogger_ErrWrapsCause(t *testing.T) {
	buf := captureDefault(t)
	sentinel := errors.New("boom")

	err := New("test").Function("run").Err("failed to run", sentinel, "id", 7)

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "failed to run: boom", err.Error())
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "id=7")
}

func TestLogger_ErrorReturnsMessage(t *testing.T) {
	captureDefault(t)

	err := New("test").Error("database path is empty", "dbPath", "")
	assert.EqualError(t, err, "database path is empty")

	err = New("test").ErrMsg("nil check failed")
	assert.EqualError(t, err, "nil check failed")
}

func TestSetup_ProductionUsesJSON(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	Setup("production", "info", &buf)
	New("app").Info("started")

	assert.Contains(t, buf.String(), `"msg":"started"`)
	assert.Contains(t, buf.String(), `"package":"app"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}
