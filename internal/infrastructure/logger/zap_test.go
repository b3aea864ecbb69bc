package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/kanban/backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_JSONEntriesArePlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.log")
	log, err := New(config.LoggerConfig{
		Level:            "debug",
		Encoding:         "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	})
	require.NoError(t, err)

	log.Named("sync").Infow("board_client_joined", "client_id", "c-1", "clients", 1)
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\x1b[")

	var entry map[string]any
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "sync", entry["logger"])
	assert.Equal(t, "board_client_joined", entry["message"])
	assert.Equal(t, "c-1", entry["client_id"])
	assert.Contains(t, entry["caller"], "zap_test.go")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New(config.LoggerConfig{
		Level:            "loud",
		OutputPaths:      []string{filepath.Join(t.TempDir(), "board.log")},
		ErrorOutputPaths: []string{"stderr"},
	})
	require.NoError(t, err)

	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestNewObserved_RecordsNamedEntries(t *testing.T) {
	log, logs := NewObserved(zapcore.WarnLevel)

	log.Named("relay").Debugw("relay_snapshot_published")
	log.Named("relay").Warnw("board_snapshot_relay_dropped", "bytes", 12)

	entries := logs.FilterMessage("board_snapshot_relay_dropped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "relay", entries[0].LoggerName)
	assert.Equal(t, int64(12), entries[0].ContextMap()["bytes"])
	assert.Equal(t, 1, logs.Len())
}
