package inference

import "fmt"

// EngineType is the type of the engine
type EngineType string

const (
	// EngineONNX is the ONNX engine that uses the onnxruntime library
	EngineONNX EngineType = "onnx"
	// EngineGoCV is the OpenCV DNN engine provided by gocv.
	EngineGoCV EngineType = "gocv"
)

// Engines is a list of all supported engines
var Engines = []EngineType{EngineONNX, EngineGoCV}

// ParseEngineType validates an engine name from configuration.
func ParseEngineType(s string) (EngineType, error) {
	for _, e := range Engines {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown inference engine %q, want one of %v", s, Engines)
}
