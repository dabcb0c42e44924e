package gocvnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/models/postprocess"
)

func TestNewDetector_MissingModel(t *testing.T) {
	cfg := inference.DefaultConfig()
	cfg.Engine = inference.EngineGoCV
	cfg.ModelPath = "testdata/does-not-exist.onnx"

	_, err := NewDetector(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model file not found")
}

func TestSuppress(t *testing.T) {
	results := []postprocess.Result{
		{Box: images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}, Score: 0.9, Class: 0},
		{Box: images.Rect{X1: 2, Y1: 2, X2: 102, Y2: 102}, Score: 0.8, Class: 0},
		{Box: images.Rect{X1: 2, Y1: 2, X2: 102, Y2: 102}, Score: 0.85, Class: 1},
		{Box: images.Rect{X1: 300, Y1: 300, X2: 350, Y2: 350}, Score: 0.3, Class: 0},
	}

	kept := suppress(results, 0.5)
	require.Len(t, kept, 3)

	assert.Equal(t, float32(0.9), kept[0].Score)
	assert.Equal(t, float32(0.85), kept[1].Score)
	assert.Equal(t, 1, kept[1].Class)
	assert.Equal(t, float32(0.3), kept[2].Score)
}

func TestSuppress_Empty(t *testing.T) {
	assert.Empty(t, suppress(nil, 0.5))
}
