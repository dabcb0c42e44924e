package providers

import (
	"fmt"
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	// CUDAProviderBackend uses NVIDIA CUDA for inference optimization.
	CUDAProviderBackend ProviderBackend = "cuda"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"device_id" yaml:"device_id" mapstructure:"device_id"`
	// The size limit of the device memory arena in bytes. 0 leaves it unlimited.
	GPUMemLimit int64 `json:"gpu_mem_limit" yaml:"gpu_mem_limit" mapstructure:"gpu_mem_limit"`
	// The strategy for extending the device memory arena.
	// 0: kNextPowerOfTwo, 1: kSameAsRequested.
	ArenaExtendStrategy int `json:"arena_extend_strategy" yaml:"arena_extend_strategy" mapstructure:"arena_extend_strategy"`
	// The type of search done for cuDNN convolution algorithms.
	// 0: EXHAUSTIVE, 1: HEURISTIC, 2: DEFAULT.
	CudnnConvAlgoSearch int `json:"cudnn_conv_algo_search" yaml:"cudnn_conv_algo_search" mapstructure:"cudnn_conv_algo_search"`
	// Whether to do copies in the default stream or use separate streams.
	DoCopyInDefaultStream bool `json:"do_copy_in_default_stream" yaml:"do_copy_in_default_stream" mapstructure:"do_copy_in_default_stream"`
}

// DefaultCUDAOptions returns the runtime's recommended CUDA settings.
func DefaultCUDAOptions() CUDAOptions {
	return CUDAOptions{
		ArenaExtendStrategy:   0,
		CudnnConvAlgoSearch:   0,
		DoCopyInDefaultStream: true,
	}
}

// ToMap renders the options as the key/value pairs the runtime expects.
func (o CUDAOptions) ToMap() map[string]string {
	m := map[string]string{
		"device_id":                 strconv.Itoa(o.DeviceID),
		"arena_extend_strategy":     lookup(arenaExtendStrategies[:], o.ArenaExtendStrategy),
		"cudnn_conv_algo_search":    lookup(cudnnConvAlgoSearches[:], o.CudnnConvAlgoSearch),
		"do_copy_in_default_stream": boolFlag(o.DoCopyInDefaultStream),
	}
	if o.GPUMemLimit > 0 {
		m["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}
	return m
}

var (
	arenaExtendStrategies = [2]string{"kNextPowerOfTwo", "kSameAsRequested"}
	cudnnConvAlgoSearches = [3]string{"EXHAUSTIVE", "HEURISTIC", "DEFAULT"}
)

// ToNativeProviderOptions converts the CUDA options to a CUDA provider options.
// The caller destroys the returned value.
func (o CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	if o.ArenaExtendStrategy < 0 || o.ArenaExtendStrategy > 1 {
		return nil, fmt.Errorf("arena_extend_strategy must be 0 or 1, got %d", o.ArenaExtendStrategy)
	}
	if o.CudnnConvAlgoSearch < 0 || o.CudnnConvAlgoSearch > 2 {
		return nil, fmt.Errorf("cudnn_conv_algo_search must be 0, 1 or 2, got %d", o.CudnnConvAlgoSearch)
	}

	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, err
	}
	if err := opts.Update(o.ToMap()); err != nil {
		opts.Destroy()
		return nil, err
	}
	return opts, nil
}

// lookup returns values[i], or values[0] when i is out of range.
func lookup(values []string, i int) string {
	if i < 0 || i >= len(values) {
		return values[0]
	}
	return values[i]
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
