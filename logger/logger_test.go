package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bybitnotifier/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.ErrorContains(t, err, "invalid log level")
}

// go test -v --run TestNewWritesJSONFile
func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "notifier.log")

	log, err := New(config.LogConfig{Level: "info", Format: "console", OutputFile: path, Environment: "dev"})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("cycle finished")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "cycle finished", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "bybitnotifier", entry["service"])
}
