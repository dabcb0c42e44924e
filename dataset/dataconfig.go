package dataset

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/hardhat/models"
)

// DataConfig is the data.yaml read by the YOLO trainer.
type DataConfig struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Val   string         `yaml:"val"`
	Test  string         `yaml:"test"`
	NC    int            `yaml:"nc"`
	Names map[int]string `yaml:"names"`
}

// NewDataConfig describes the processed layout under root.
func NewDataConfig(root string, classes *models.OutputClassSet) DataConfig {
	names := make(map[int]string, classes.Len())
	for _, c := range classes.Classes {
		names[c.Index] = c.Name
	}
	return DataConfig{
		Path:  root,
		Train: filepath.ToSlash(filepath.Join("images", PartTrain)),
		Val:   filepath.ToSlash(filepath.Join("images", PartVal)),
		Test:  filepath.ToSlash(filepath.Join("images", PartTest)),
		NC:    classes.Len(),
		Names: names,
	}
}

// WriteDataConfig writes cfg as YAML to path.
func WriteDataConfig(path string, cfg DataConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode data config")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadDataConfig reads a data.yaml.
func ReadDataConfig(path string) (DataConfig, error) {
	var cfg DataConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to decode %s", path)
	}
	return cfg, nil
}
