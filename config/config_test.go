package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/inference/providers"
	"github.com/nvr-ai/hardhat/models"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	d := Default()
	assert.Equal(t, d.Server.Addr, cfg.Server.Addr)
	assert.Equal(t, d.Server.CORSOrigins, cfg.Server.CORSOrigins)
	assert.Equal(t, images.DefaultMaxPixels, cfg.Server.MaxImagePixels)
	assert.Equal(t, inference.EngineONNX, cfg.Inference.Engine)
	assert.Equal(t, 640, cfg.Inference.InputSize)
	assert.InDelta(t, 0.25, cfg.Inference.ConfidenceThreshold, 1e-6)
	assert.Equal(t, providers.CPUProviderBackend, cfg.Inference.Provider.Backend)
	assert.Same(t, models.HardHatClasses, cfg.Inference.Classes)
	assert.Equal(t, time.Hour, cfg.Redis.TTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, uint64(42), cfg.Dataset.Seed)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: 127.0.0.1:9000
  cors_origins:
    - https://ppe.example.com
inference:
  engine: gocv
  model_path: /srv/models/hardhat.onnx
  confidence_threshold: 0.4
  provider:
    backend: cuda
    cuda:
      device_id: 1
redis:
  enabled: true
  ttl: 30m
mqtt:
  brokers: [tcp://broker:1883]
  qos: 2
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"https://ppe.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, inference.EngineGoCV, cfg.Inference.Engine)
	assert.Equal(t, "/srv/models/hardhat.onnx", cfg.Inference.ModelPath)
	assert.InDelta(t, 0.4, cfg.Inference.ConfidenceThreshold, 1e-6)
	assert.Equal(t, providers.CUDAProviderBackend, cfg.Inference.Provider.Backend)
	assert.Equal(t, 1, cfg.Inference.Provider.CUDA.DeviceID)
	assert.True(t, cfg.Inference.Provider.CUDA.DoCopyInDefaultStream)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"tcp://broker:1883"}, cfg.MQTT.Brokers)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 640, cfg.Inference.InputSize)
	assert.Equal(t, "hardhat/alerts", cfg.MQTT.Topic)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: 127.0.0.1:9000\n")
	t.Setenv("HARDHAT_SERVER_ADDR", "0.0.0.0:7000")
	t.Setenv("HARDHAT_INFERENCE_NMS_THRESHOLD", "0.5")
	t.Setenv("HARDHAT_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
	assert.InDelta(t, 0.5, cfg.Inference.NMSThreshold, 1e-6)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_InvalidInference(t *testing.T) {
	path := writeConfig(t, "inference:\n  input_size: 100\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_size")
}

func TestLoad_UnknownFamily(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HARDHAT_INFERENCE_FAMILY", "coco")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coco")
}
