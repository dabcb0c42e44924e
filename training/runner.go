package training

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultCommand is the ultralytics CLI.
const DefaultCommand = "yolo"

// Runner starts training runs rooted at a project directory.
type Runner struct {
	// Root is the project root. Relative data_config paths and the runs
	// directory are resolved against it.
	Root string
	// Command is the trainer executable. Defaults to DefaultCommand.
	Command string
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *zap.Logger
}

// RunDir returns the directory the trainer writes the run to.
func (r *Runner) RunDir(p Params) string {
	return filepath.Join(r.projectDir(), p.RunName)
}

func (r *Runner) projectDir() string {
	return filepath.Join(r.Root, "runs", "detect")
}

// Args returns the trainer arguments for p.
func (r *Runner) Args(p Params) []string {
	data := p.DataConfig
	if !filepath.IsAbs(data) {
		data = filepath.Join(r.Root, data)
	}
	return []string{
		"detect", "train",
		"data=" + data,
		"model=" + p.ModelVersion,
		"epochs=" + strconv.Itoa(p.Epochs),
		"batch=" + strconv.Itoa(p.BatchSize),
		"imgsz=" + strconv.Itoa(p.ImgSize),
		"project=" + r.projectDir(),
		"name=" + p.RunName,
	}
}

// Env returns the process environment with the MLflow experiment set.
func (r *Runner) Env(p Params) []string {
	return append(os.Environ(), "MLFLOW_EXPERIMENT_NAME="+p.ExperimentName)
}

// CommandFor builds the trainer process without starting it.
func (r *Runner) CommandFor(ctx context.Context, p Params) *exec.Cmd {
	name := r.Command
	if name == "" {
		name = DefaultCommand
	}
	cmd := exec.CommandContext(ctx, name, r.Args(p)...)
	cmd.Dir = r.Root
	cmd.Env = r.Env(p)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd
}

// Run validates p and runs the trainer to completion.
func (r *Runner) Run(ctx context.Context, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := r.CommandFor(ctx, p)
	logger.Info("starting model training",
		zap.String("experiment", p.ExperimentName),
		zap.String("model", p.ModelVersion),
		zap.Strings("args", cmd.Args),
	)
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "training run %s failed", p.RunName)
	}

	logger.Info("model training complete", zap.String("outputs", r.RunDir(p)))
	return nil
}
