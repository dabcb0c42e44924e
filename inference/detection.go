// Package inference - Object detectors that turn an image into labelled boxes.
package inference

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/models"
	"github.com/nvr-ai/hardhat/models/postprocess"
)

// ErrDetectorClosed is returned by Detect after Close.
var ErrDetectorClosed = errors.New("detector is closed")

// Detection is one detected object in source image coordinates.
type Detection struct {
	Box        images.Rect `json:"box"`
	ClassID    int         `json:"class_id"`
	ClassName  string      `json:"class_name"`
	Confidence float32     `json:"confidence"`
}

// Label returns the text drawn next to the detection, e.g. "helmet 0.87".
func (d Detection) Label() string {
	return fmt.Sprintf("%s %.2f", d.ClassName, d.Confidence)
}

// Detector defines the interface for inference backends.
//
// Detect returns detections in the order the backend produced them. Callers
// that draw labels rely on this order staying stable.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Detection, error)
	Close() error
}

// FromResults names decoded results using classes. Results with an index
// outside the set keep a numeric name.
func FromResults(results []postprocess.Result, classes *models.OutputClassSet) []Detection {
	out := make([]Detection, 0, len(results))
	for _, r := range results {
		name, err := classes.Name(r.Class)
		if err != nil {
			name = fmt.Sprintf("class_%d", r.Class)
		}
		out = append(out, Detection{
			Box:        r.Box,
			ClassID:    r.Class,
			ClassName:  name,
			Confidence: r.Score,
		})
	}
	return out
}

// CountByClass tallies detections per class name.
func CountByClass(detections []Detection) map[string]int {
	counts := make(map[string]int, len(detections))
	for _, d := range detections {
		counts[d.ClassName]++
	}
	return counts
}
