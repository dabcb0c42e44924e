package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleParams = `
prepare:
  seed: 42
train:
  experiment_name: hardhat-detection
  model_version: yolov8n.pt
  data_config: config/data.yaml
  epochs: 50
  batch_size: 16
  img_Size: 640
  run_name: yolov8n_v4
`

func validParams() Params {
	return Params{
		ExperimentName: "hardhat-detection",
		ModelVersion:   "yolov8n.pt",
		DataConfig:     "config/data.yaml",
		Epochs:         50,
		BatchSize:      16,
		ImgSize:        640,
		RunName:        "yolov8n_v4",
	}
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleParams), 0o644))

	p, err := LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, validParams(), p)
}

func TestLoadParams_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadParams(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	noTrain := filepath.Join(dir, "no_train.yaml")
	require.NoError(t, os.WriteFile(noTrain, []byte("prepare:\n  seed: 1\n"), 0o644))
	_, err = LoadParams(noTrain)
	assert.ErrorContains(t, err, "no train section")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("train: [unclosed"), 0o644))
	_, err = LoadParams(bad)
	assert.Error(t, err)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"experiment", func(p *Params) { p.ExperimentName = "" }},
		{"model", func(p *Params) { p.ModelVersion = "" }},
		{"data", func(p *Params) { p.DataConfig = "" }},
		{"run", func(p *Params) { p.RunName = "" }},
		{"epochs", func(p *Params) { p.Epochs = 0 }},
		{"batch", func(p *Params) { p.BatchSize = 0 }},
		{"imgsz", func(p *Params) { p.ImgSize = 600 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}

	p := validParams()
	p.BatchSize = -1
	assert.NoError(t, p.Validate())
}

func TestRunner_Args(t *testing.T) {
	r := &Runner{Root: "/srv/hardhat"}
	p := validParams()

	assert.Equal(t, []string{
		"detect", "train",
		"data=/srv/hardhat/config/data.yaml",
		"model=yolov8n.pt",
		"epochs=50",
		"batch=16",
		"imgsz=640",
		"project=/srv/hardhat/runs/detect",
		"name=yolov8n_v4",
	}, r.Args(p))
	assert.Equal(t, "/srv/hardhat/runs/detect/yolov8n_v4", r.RunDir(p))

	p.DataConfig = "/abs/data.yaml"
	assert.Contains(t, r.Args(p), "data=/abs/data.yaml")
}

func TestRunner_Env(t *testing.T) {
	r := &Runner{}
	env := r.Env(validParams())
	assert.Contains(t, env, "MLFLOW_EXPERIMENT_NAME=hardhat-detection")
}

func TestRunner_CommandFor(t *testing.T) {
	r := &Runner{Root: t.TempDir(), Command: "/opt/venv/bin/yolo"}
	cmd := r.CommandFor(context.Background(), validParams())

	assert.Equal(t, "/opt/venv/bin/yolo", cmd.Path)
	assert.Equal(t, r.Root, cmd.Dir)
	assert.Equal(t, "detect", cmd.Args[1])
}

func TestRunner_Run_InvalidParams(t *testing.T) {
	r := &Runner{Root: t.TempDir()}
	assert.Error(t, r.Run(context.Background(), Params{}))
}

func TestRunner_Run_MissingCommand(t *testing.T) {
	r := &Runner{Root: t.TempDir(), Command: filepath.Join(t.TempDir(), "no-such-yolo")}
	assert.Error(t, r.Run(context.Background(), validParams()))
}
