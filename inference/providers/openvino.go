package providers

import "strconv"

const (
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type (CPU, GPU, NPU).
	DeviceType string `json:"device_type" yaml:"device_type" mapstructure:"device_type"`
	// Precision is one of FP32, FP16 or ACCURACY.
	Precision string `json:"precision" yaml:"precision" mapstructure:"precision"`
	// Overrides the accelerator default number of threads. 0 keeps the default.
	NumOfThreads int `json:"num_of_threads" yaml:"num_of_threads" mapstructure:"num_of_threads"`
}

// DefaultOpenVINOOptions targets the CPU plugin at full precision.
func DefaultOpenVINOOptions() OpenVINOOptions {
	return OpenVINOOptions{DeviceType: "CPU", Precision: "FP32"}
}

// ToMap renders the options as the key/value pairs the runtime expects.
func (o OpenVINOOptions) ToMap() map[string]string {
	m := map[string]string{}
	if o.DeviceType != "" {
		m["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		m["precision"] = o.Precision
	}
	if o.NumOfThreads > 0 {
		m["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	return m
}
