package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"INFO":    zap.InfoLevel,
		" warn ":  zap.WarnLevel,
		"warning": zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"bogus":   zap.DebugLevel,
		"":        zap.DebugLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	c := DefaultConfig()
	c.Dir = dir
	c.Console = false
	c.Level = "info"

	log, err := New(c)
	require.NoError(t, err)
	assert.Equal(t, zap.InfoLevel, GlobalLevel.Level())

	log.Debug("hidden")
	log.Info("visible")
	log.Error("broken")
	_ = log.Sync()

	main, err := os.ReadFile(filepath.Join(dir, "hardhat.log"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "visible")
	assert.Contains(t, string(main), "broken")
	assert.NotContains(t, string(main), "hidden")

	errs, err := os.ReadFile(filepath.Join(dir, "error_hardhat.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "broken")
	assert.NotContains(t, string(errs), "visible")
}

func TestNew_NoOutputs(t *testing.T) {
	log, err := New(Config{Level: "info"})
	require.NoError(t, err)
	log.Info("discarded")
}
