// Package yolov8 - Decodes the raw output tensor of an exported YOLOv8 detector.
//
// The exported graph emits a single [1, 4+nc, anchors] float32 tensor. The first
// four rows hold the box centre and size in letterboxed input pixels, the
// remaining nc rows hold per-class scores.
package yolov8

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/models/postprocess"
)

// boxRows is the number of leading rows that describe geometry.
const boxRows = 4

// Config controls decoding.
type Config struct {
	// NumClasses is the number of score rows following the box rows.
	NumClasses int
	// ConfidenceThreshold drops anchors whose best class score is lower.
	ConfidenceThreshold float32
	// NMS configures the suppression pass. Nil skips suppression.
	NMS *postprocess.NMSConfig
}

// OutputShape returns the expected output shape for a given number of classes
// and anchors.
func OutputShape(numClasses, anchors int) []int64 {
	return []int64{1, int64(boxRows + numClasses), int64(anchors)}
}

// Decode turns a raw output tensor into detections in source image coordinates.
//
// Arguments:
//   - output: The flat output buffer, row-major [1, 4+nc, anchors].
//   - shape: The output tensor shape.
//   - scale: The letterbox mapping used to build the input.
//   - src: The size of the source image; boxes are clamped to it.
//   - cfg: Class count, threshold and NMS settings.
//
// Returns:
//   - []postprocess.Result: Detections sorted by descending confidence.
//   - error: An error when the shape does not match the buffer or class count.
func Decode(
	output []float32,
	shape []int64,
	scale images.ScaleInfo,
	src images.Size,
	cfg Config,
) ([]postprocess.Result, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	rows, anchors := int(shape[1]), int(shape[2])
	if rows != boxRows+cfg.NumClasses {
		return nil, fmt.Errorf("output has %d rows, want %d for %d classes", rows, boxRows+cfg.NumClasses, cfg.NumClasses)
	}
	if len(output) != rows*anchors {
		return nil, fmt.Errorf("output holds %d floats, shape %v needs %d", len(output), shape, rows*anchors)
	}

	// Transpose to [anchors, rows] so every anchor is one contiguous row.
	backing := make([]float32, len(output))
	copy(backing, output)
	t := tensor.New(tensor.WithShape(rows, anchors), tensor.Of(tensor.Float32), tensor.WithBacking(backing))
	if err := t.T(); err != nil {
		return nil, errors.Wrap(err, "failed to set up output transpose")
	}
	if err := t.Transpose(); err != nil {
		return nil, errors.Wrap(err, "failed to transpose output")
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.New("output tensor is not float32")
	}

	results := make([]postprocess.Result, 0, 64)
	for a := 0; a < anchors; a++ {
		row := data[a*rows : (a+1)*rows]

		classID, score := bestClass(row[boxRows:])
		if score < cfg.ConfidenceThreshold {
			continue
		}

		box, ok := toSourceRect(row[0], row[1], row[2], row[3], scale, src)
		if !ok {
			continue
		}

		results = append(results, postprocess.Result{Box: box, Score: score, Class: classID})
	}

	postprocess.SortByScore(results)

	if cfg.NMS != nil {
		results = postprocess.ApplyGreedyNMS(results, cfg.NMS)
	}
	return results, nil
}

func bestClass(scores []float32) (int, float32) {
	best, bestScore := 0, float32(math32.Inf(-1))
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

// toSourceRect maps a centre/size box from letterboxed input pixels back to the
// source image and clamps it. Degenerate boxes report false.
func toSourceRect(cx, cy, w, h float32, scale images.ScaleInfo, src images.Size) (images.Rect, bool) {
	cx, cy = scale.Unmap(cx, cy)
	if scale.Scale != 0 {
		w /= scale.Scale
		h /= scale.Scale
	}

	maxX, maxY := float32(src.Width), float32(src.Height)
	x1 := clamp(cx-w/2, 0, maxX)
	y1 := clamp(cy-h/2, 0, maxY)
	x2 := clamp(cx+w/2, 0, maxX)
	y2 := clamp(cy+h/2, 0, maxY)

	r := images.Rect{
		X1: int(math32.Round(x1)),
		Y1: int(math32.Round(y1)),
		X2: int(math32.Round(x2)),
		Y2: int(math32.Round(y2)),
	}
	if r.X2 <= r.X1 || r.Y2 <= r.Y1 {
		return images.Rect{}, false
	}
	return r, true
}

func clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(v, hi))
}
