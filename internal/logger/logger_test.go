package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level string) (*Logger, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	var console bytes.Buffer

	l, err := NewWithOutput(dir, level, &console)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	return l, &console, dir
}

func readLog(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return ""
	}
	require.NoError(t, err)
	return string(data)
}

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	l, console, dir := newTestLogger(t, "info")

	l.Info("processed %d horses", 3)
	l.Warning("slow inference: %dms", 900)
	l.Error("history append failed: %v", "disk full")

	assert.Contains(t, readLog(t, dir, InfoFile), "processed 3 horses")
	assert.Contains(t, readLog(t, dir, WarningFile), "slow inference: 900ms")
	assert.Contains(t, readLog(t, dir, ErrorFile), "history append failed: disk full")
	assert.NotContains(t, readLog(t, dir, InfoFile), "disk full")

	assert.Contains(t, console.String(), "processed 3 horses")
}

func TestLogger_RespectsLevel(t *testing.T) {
	l, console, dir := newTestLogger(t, "warning")

	l.Info("hidden")
	l.Debug("hidden too")
	l.Warning("shown")

	assert.NotContains(t, console.String(), "hidden")
	assert.NotContains(t, readLog(t, dir, InfoFile), "hidden")
	assert.Contains(t, readLog(t, dir, WarningFile), "shown")
}

func TestLogger_WithFields(t *testing.T) {
	l, _, dir := newTestLogger(t, "info")

	l.WithFields(Fields{"request_id": "req-1", "status": 201}).Info("request served")

	content := readLog(t, dir, InfoFile)
	assert.Contains(t, content, "request_id=req-1")
	assert.Contains(t, content, "status=201")
}

func TestLogger_ReportsCallingLine(t *testing.T) {
	l, console, dir := newTestLogger(t, "info")

	l.Info("hello")
	l.Warning("careful")

	assert.Contains(t, console.String(), "logger_test.go:")
	assert.NotContains(t, console.String(), "logger.go:")
	assert.Contains(t, readLog(t, dir, InfoFile), "caller=")
	assert.Contains(t, readLog(t, dir, InfoFile), "logger_test.go:")
	assert.Contains(t, readLog(t, dir, WarningFile), "logger_test.go:")
}

func TestLogger_CleanLogs(t *testing.T) {
	l, _, dir := newTestLogger(t, "info")

	l.Error("something broke")
	require.NotEmpty(t, readLog(t, dir, ErrorFile))

	require.NoError(t, l.CleanLogs(ErrorFile))
	assert.Empty(t, readLog(t, dir, ErrorFile))

	assert.Error(t, l.CleanLogs("../etc/passwd"))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(t.TempDir(), "loud")
	assert.Error(t, err)
}
