package inference

import (
	"fmt"

	"github.com/nvr-ai/hardhat/inference/providers"
	"github.com/nvr-ai/hardhat/models"
)

// Config represents the configuration shared by every detector backend.
type Config struct {
	// Engine selects the backend.
	Engine EngineType `json:"engine" yaml:"engine" mapstructure:"engine"`

	// ModelPath is the exported ONNX model.
	ModelPath string `json:"model_path" yaml:"model_path" mapstructure:"model_path"`

	// LibraryPath overrides the bundled onnxruntime shared library.
	LibraryPath string `json:"library_path" yaml:"library_path" mapstructure:"library_path"`

	// InputSize is the side of the square model input.
	InputSize int `json:"input_size" yaml:"input_size" mapstructure:"input_size"`

	// Anchors is the number of candidate boxes the model emits.
	Anchors int `json:"anchors" yaml:"anchors" mapstructure:"anchors"`

	// ConfidenceThreshold filters detections below this confidence level
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold" mapstructure:"confidence_threshold"`

	// NMSThreshold controls Non-Maximum Suppression IoU threshold
	NMSThreshold float32 `json:"nms_threshold" yaml:"nms_threshold" mapstructure:"nms_threshold"`

	// Provider configures the onnxruntime execution provider.
	Provider providers.Config `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Family selects the registered class set when Classes is unset.
	Family models.ModelFamily `json:"family" yaml:"family" mapstructure:"family"`

	// Classes names the model outputs. Defaults to the hard-hat set.
	Classes *models.OutputClassSet `json:"-" yaml:"-" mapstructure:"-"`
}

// DefaultConfig returns the settings for a 640px YOLOv8 hard-hat model.
func DefaultConfig() Config {
	return Config{
		Engine:              EngineONNX,
		ModelPath:           "models/best.onnx",
		InputSize:           640,
		Anchors:             8400,
		ConfidenceThreshold: 0.25,
		NMSThreshold:        0.7,
		Provider:            providers.DefaultConfig(),
		Family:              models.ModelFamilyHardHat,
		Classes:             models.HardHatClasses,
	}
}

// Validate checks the settings that every backend depends on.
func (c *Config) Validate() error {
	if _, err := ParseEngineType(string(c.Engine)); err != nil {
		return err
	}
	if c.ModelPath == "" {
		return fmt.Errorf("model_path is required")
	}
	if c.InputSize < 32 || c.InputSize%32 != 0 {
		return fmt.Errorf("input_size must be a positive multiple of 32, got %d", c.InputSize)
	}
	if c.Anchors <= 0 {
		return fmt.Errorf("anchors must be positive, got %d", c.Anchors)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0, 1], got %v", c.ConfidenceThreshold)
	}
	if c.NMSThreshold < 0 || c.NMSThreshold > 1 {
		return fmt.Errorf("nms_threshold must be in [0, 1], got %v", c.NMSThreshold)
	}
	if c.Classes == nil {
		set, err := models.ClassSetFor(c.Family)
		if err != nil {
			return err
		}
		c.Classes = set
	}
	return nil
}
