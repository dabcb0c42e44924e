// Package training launches YOLO training runs described by params.yaml.
package training

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Params is the train section of params.yaml.
type Params struct {
	ExperimentName string `yaml:"experiment_name"`
	ModelVersion   string `yaml:"model_version"`
	DataConfig     string `yaml:"data_config"`
	Epochs         int    `yaml:"epochs"`
	BatchSize      int    `yaml:"batch_size"`
	ImgSize        int    `yaml:"img_Size"`
	RunName        string `yaml:"run_name"`
}

type paramsFile struct {
	Train *Params `yaml:"train"`
}

// Validate checks that every field needed to start a run is set.
func (p Params) Validate() error {
	switch {
	case p.ExperimentName == "":
		return errors.New("train.experiment_name is required")
	case p.ModelVersion == "":
		return errors.New("train.model_version is required")
	case p.DataConfig == "":
		return errors.New("train.data_config is required")
	case p.RunName == "":
		return errors.New("train.run_name is required")
	case p.Epochs <= 0:
		return errors.Errorf("train.epochs must be positive, got %d", p.Epochs)
	case p.BatchSize == 0 || p.BatchSize < -1:
		return errors.Errorf("train.batch_size must be positive or -1, got %d", p.BatchSize)
	case p.ImgSize <= 0 || p.ImgSize%32 != 0:
		return errors.Errorf("train.img_Size must be a positive multiple of 32, got %d", p.ImgSize)
	}
	return nil
}

// LoadParams reads the train section of the params file at path.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, errors.Wrapf(err, "error loading %s", path)
	}

	var f paramsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Params{}, errors.Wrapf(err, "error decoding %s", path)
	}
	if f.Train == nil {
		return Params{}, errors.Errorf("%s has no train section", path)
	}
	if err := f.Train.Validate(); err != nil {
		return Params{}, errors.Wrapf(err, "%s", path)
	}
	return *f.Train, nil
}
