package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductionLogsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, Options{}))

	log.Debug("hidden")
	log.Info("goal status changed", "goal_id", 7)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"goal status changed"`)
	assert.Contains(t, buf.String(), `"goal_id":7`)
}

func TestDevelopmentLogsTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, Options{IsDev: true}))

	log.Debug("visible", "user_id", 3)

	assert.Contains(t, buf.String(), "msg=visible")
	assert.Contains(t, buf.String(), "user_id=3")
}

func TestLogFileReceivesCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, Options{LogFile: path}))

	log.Warn("rate limit exceeded", "ip", "10.0.0.1")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"rate limit exceeded"`)
	assert.Contains(t, buf.String(), "rate limit exceeded")
}
