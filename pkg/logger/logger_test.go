package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"valentine-server/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("Unknown level falls back to info", func(t *testing.T) {
		l, err := logger.New(logger.Config{Level: "loud", Encoding: "console"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zap.InfoLevel))
		assert.False(t, l.Core().Enabled(zap.DebugLevel))
	})

	t.Run("Debug level is honoured", func(t *testing.T) {
		l, err := logger.New(logger.Config{Level: "DEBUG"})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zap.DebugLevel))
	})

	t.Run("Writes json to the output path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "server.log")
		l, err := logger.New(logger.Config{Level: "info", Encoding: "xml", OutputPath: path})
		require.NoError(t, err)

		l.Info("response recorded", zap.Int64("response_id", 7))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"level":"INFO"`)
		assert.Contains(t, string(data), `"response_id":7`)
		assert.Contains(t, string(data), `"timestamp"`)
		assert.NotContains(t, string(data), `"service"`)
	})

	t.Run("Service field and global logger", func(t *testing.T) {
		prev := zap.L()
		t.Cleanup(func() { zap.ReplaceGlobals(prev) })

		path := filepath.Join(t.TempDir(), "notifier.log")
		l, err := logger.New(logger.Config{OutputPath: path, Service: "letter-notifier", Global: true})
		require.NoError(t, err)
		assert.Same(t, l, zap.L())

		zap.L().Info("push sent")
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"service":"letter-notifier"`)
		assert.Contains(t, string(data), `"msg":"push sent"`)
	})
}
