package providers

const (
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
)

// CoreMLOptions contains arguments for the CoreML provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
type CoreMLOptions struct {
	// Flags is the COREML_FLAG_* bit set passed to the provider. 0 uses every
	// available compute unit.
	Flags uint32 `json:"flags" yaml:"flags" mapstructure:"flags"`
}
