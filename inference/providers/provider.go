// Package providers - Execution provider selection and session options for ONNX Runtime.
package providers

import (
	"fmt"
	"runtime"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend represents different ONNX Runtime execution providers
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU execution provider.
	CPUProviderBackend ProviderBackend = "cpu"
)

// Config selects an execution provider and tunes the session it runs in.
type Config struct {
	// Backend specifies the backend to use
	Backend ProviderBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
	// IntraOpThreads parallelises work inside a node. 0 lets the runtime decide.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads" mapstructure:"intra_op_threads"`
	// InterOpThreads parallelises independent nodes. 0 lets the runtime decide.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads" mapstructure:"inter_op_threads"`
	// GraphOptimization is one of disable, basic, extended or all.
	GraphOptimization string `json:"graph_optimization" yaml:"graph_optimization" mapstructure:"graph_optimization"`
	// CUDA options, used when Backend is cuda.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda" mapstructure:"cuda"`
	// CoreML options, used when Backend is coreml.
	CoreML CoreMLOptions `json:"coreml" yaml:"coreml" mapstructure:"coreml"`
	// OpenVINO options, used when Backend is openvino.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino" mapstructure:"openvino"`
}

// DefaultConfig returns a CPU configuration sized for the current machine.
func DefaultConfig() Config {
	return Config{
		Backend:           CPUProviderBackend,
		IntraOpThreads:    max(1, runtime.NumCPU()/2),
		InterOpThreads:    max(1, runtime.NumCPU()/4),
		GraphOptimization: "extended",
		CUDA:              DefaultCUDAOptions(),
		OpenVINO:          DefaultOpenVINOOptions(),
	}
}

// Validate checks the backend and optimization level.
func (c Config) Validate() error {
	switch c.Backend {
	case CPUProviderBackend, CUDAProviderBackend, CoreMLProviderBackend, OpenVINOProviderBackend:
	default:
		return fmt.Errorf("no matching provider backend registered: %q", c.Backend)
	}
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return fmt.Errorf("thread counts must not be negative, got intra=%d inter=%d", c.IntraOpThreads, c.InterOpThreads)
	}
	if _, err := ParseGraphOptimizationLevel(c.GraphOptimization); err != nil {
		return err
	}
	return nil
}

// ParseGraphOptimizationLevel maps a config string to the runtime constant.
// An empty string selects the extended level.
func ParseGraphOptimizationLevel(s string) (ort.GraphOptimizationLevel, error) {
	switch strings.ToLower(s) {
	case "disable", "none":
		return ort.GraphOptimizationLevelDisableAll, nil
	case "basic":
		return ort.GraphOptimizationLevelEnableBasic, nil
	case "", "extended":
		return ort.GraphOptimizationLevelEnableExtended, nil
	case "all":
		return ort.GraphOptimizationLevelEnableAll, nil
	default:
		return 0, fmt.Errorf("unknown graph optimization level %q", s)
	}
}

// NewSessionOptions builds session options for c. The caller destroys them once
// the session has been created.
//
// Arguments:
//   - c: The provider configuration.
//
// Returns:
//   - *ort.SessionOptions: Options with threading, graph optimization and the
//     execution provider applied.
//   - error: An error if the runtime rejects any setting.
func NewSessionOptions(c Config) (*ort.SessionOptions, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	level, _ := ParseGraphOptimizationLevel(c.GraphOptimization)

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}

	if err := applySessionOptions(options, c, level); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func applySessionOptions(options *ort.SessionOptions, c Config, level ort.GraphOptimizationLevel) error {
	if err := options.SetIntraOpNumThreads(c.IntraOpThreads); err != nil {
		return fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(c.InterOpThreads); err != nil {
		return fmt.Errorf("error setting inter-op threads: %w", err)
	}
	if err := options.SetGraphOptimizationLevel(level); err != nil {
		return fmt.Errorf("error setting graph optimization level: %w", err)
	}

	switch c.Backend {
	case CoreMLProviderBackend:
		if err := options.AppendExecutionProviderCoreML(c.CoreML.Flags); err != nil {
			return fmt.Errorf("error enabling CoreML: %w", err)
		}
	case OpenVINOProviderBackend:
		if err := options.AppendExecutionProviderOpenVINO(c.OpenVINO.ToMap()); err != nil {
			return fmt.Errorf("error enabling OpenVINO: %w", err)
		}
	case CUDAProviderBackend:
		cuda, err := c.CUDA.ToNativeProviderOptions()
		if err != nil {
			return fmt.Errorf("error converting CUDA options: %w", err)
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("error enabling CUDA: %w", err)
		}
	}
	return nil
}
