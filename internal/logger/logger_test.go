package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aleister1102/specwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleOnly(t *testing.T) {
	cfg := config.NewDefaultLogConfig()

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info().Msg("sanity")
}

func TestNew_FileLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "specwatch.log")
	cfg := config.LogConfig{
		LogLevel:   "debug",
		EnableFile: true,
		LogFile:    logFile,
	}

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info().Msg("written to file")

	info, err := os.Stat(logFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestNew_FileLoggingRequiresPath(t *testing.T) {
	cfg := config.LogConfig{EnableFile: true}

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_InvalidLevel(t *testing.T) {
	cfg := config.NewDefaultLogConfig()
	cfg.LogLevel = "verbose"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_NoWritersConfigured(t *testing.T) {
	cfg := config.LogConfig{EnableConsole: false, EnableFile: false}

	_, err := New(cfg)
	assert.Error(t, err)
}
