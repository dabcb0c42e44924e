package detectors

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/hardhat/inference"
)

func TestNew_UnknownEngine(t *testing.T) {
	cfg := inference.DefaultConfig()
	cfg.Engine = "tflite"

	d, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, d)
}

func TestNew_MissingModel(t *testing.T) {
	for _, engine := range inference.Engines {
		t.Run(string(engine), func(t *testing.T) {
			cfg := inference.DefaultConfig()
			cfg.Engine = engine
			cfg.ModelPath = filepath.Join(t.TempDir(), "best.onnx")

			d, err := New(cfg)
			require.Error(t, err)
			// A failed load must yield an untyped nil so callers can test d == nil.
			assert.True(t, d == nil)
		})
	}
}
