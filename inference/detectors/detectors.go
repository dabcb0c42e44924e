// Package detectors builds the detector backend selected by configuration.
package detectors

import (
	"fmt"

	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/inference/gocvnet"
)

// New returns the detector for config.Engine.
//
// Arguments:
//   - config: The detector configuration.
//
// Returns:
//   - inference.Detector: A ready detector, or nil on error.
//   - error: An error if the engine is unknown or the model fails to load.
func New(config inference.Config) (inference.Detector, error) {
	switch config.Engine {
	case inference.EngineONNX:
		d, err := inference.NewONNXDetector(config)
		if err != nil {
			return nil, err
		}
		return d, nil
	case inference.EngineGoCV:
		d, err := gocvnet.NewDetector(config)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown engine %q, want one of %v", config.Engine, inference.Engines)
	}
}
