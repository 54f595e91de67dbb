package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"love-sim-server/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Run("Default config logs at info", func(t *testing.T) {
		log, err := logger.New(logger.Config{})
		require.NoError(t, err)
		require.NotNil(t, log)

		assert.True(t, log.Core().Enabled(zap.InfoLevel))
		assert.False(t, log.Core().Enabled(zap.DebugLevel))
	})

	t.Run("Debug level enables debug", func(t *testing.T) {
		log, err := logger.New(logger.Config{Level: "debug"})
		require.NoError(t, err)

		assert.True(t, log.Core().Enabled(zap.DebugLevel))
	})

	t.Run("Unknown level falls back to info", func(t *testing.T) {
		log, err := logger.New(logger.Config{Level: "loud"})
		require.NoError(t, err)

		assert.True(t, log.Core().Enabled(zap.InfoLevel))
		assert.False(t, log.Core().Enabled(zap.DebugLevel))
	})

	t.Run("Writes JSON to the configured file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		log, err := logger.New(logger.Config{Level: "info", OutputPath: path})
		require.NoError(t, err)

		log.Info("Server started", zap.String("port", "8080"))
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"Server started"`)
		assert.Contains(t, string(data), `"port":"8080"`)
	})

	t.Run("Console encoding is accepted", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		log, err := logger.New(logger.Config{Encoding: "console", OutputPath: path})
		require.NoError(t, err)

		log.Info("Server started")
		require.NoError(t, log.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Server started")
		assert.NotContains(t, string(data), `"msg"`)
	})
}
