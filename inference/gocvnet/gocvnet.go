// Package gocvnet runs the hard-hat model through OpenCV's DNN module.
//
// It is the fallback backend for hosts that ship OpenCV but not onnxruntime.
// Decoding is shared with the onnxruntime backend; suppression uses
// gocv.NMSBoxes per class.
package gocvnet

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/inference/providers"
	"github.com/nvr-ai/hardhat/models/postprocess"
	"github.com/nvr-ai/hardhat/models/yolov8"
)

// Detector handles ONNX model inference using gocv.ReadNetFromONNX.
type Detector struct {
	config inference.Config
	net    gocv.Net
	closed bool
	// gocv.Net is not safe for concurrent use.
	mu sync.Mutex
}

var _ inference.Detector = (*Detector)(nil)

// NewDetector loads the model into an OpenCV network.
//
// Arguments:
//   - config: The detector configuration. Provider.Backend cuda selects the
//     CUDA DNN backend; anything else runs on the CPU.
//
// Returns:
//   - *Detector: A ready detector.
//   - error: An error if the configuration is invalid or the model fails to load.
func NewDetector(config inference.Config) (*Detector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s: %w", config.ModelPath, err)
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load ONNX model: %s", config.ModelPath)
	}

	switch config.Provider.Backend {
	case providers.CUDAProviderBackend:
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	default:
		net.SetPreferableBackend(gocv.NetBackendOpenCV)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}

	return &Detector{config: config, net: net}, nil
}

// Detect runs inference on img and returns detections sorted by descending
// confidence.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]inference.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, inference.ErrDetectorClosed
	}

	size := d.config.InputSize
	boxed, scale := images.Letterbox(img, size)

	blob, err := blobFromRGBA(boxed, size)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %w", err)
	}
	dims := out.Size()
	shape := make([]int64, len(dims))
	for i, v := range dims {
		shape[i] = int64(v)
	}

	b := img.Bounds()
	results, err := yolov8.Decode(data, shape, scale, images.Size{Width: b.Dx(), Height: b.Dy()}, yolov8.Config{
		NumClasses:          d.config.Classes.Len(),
		ConfidenceThreshold: d.config.ConfidenceThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}

	return inference.FromResults(suppress(results, d.config.NMSThreshold), d.config.Classes), nil
}

// Close releases the network. It is safe to call twice.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}

// blobFromRGBA wraps the letterboxed pixels in a Mat and converts them to a
// normalised NCHW blob. The pixels are already RGB so no channel swap is done.
func blobFromRGBA(img *image.RGBA, size int) (gocv.Mat, error) {
	rgba, err := gocv.NewMatFromBytes(size, size, gocv.MatTypeCV8UC4, img.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to wrap input pixels: %w", err)
	}
	defer rgba.Close()

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(rgba, &rgb, gocv.ColorRGBAToRGB)

	return gocv.BlobFromImage(rgb, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), false, false), nil
}

// suppress runs gocv.NMSBoxes separately for every class and returns the
// survivors in descending score order.
func suppress(results []postprocess.Result, nmsThreshold float32) []postprocess.Result {
	byClass := make(map[int][]postprocess.Result)
	order := make([]int, 0)
	for _, r := range results {
		if _, ok := byClass[r.Class]; !ok {
			order = append(order, r.Class)
		}
		byClass[r.Class] = append(byClass[r.Class], r)
	}

	kept := make([]postprocess.Result, 0, len(results))
	for _, class := range order {
		group := byClass[class]
		boxes := make([]image.Rectangle, len(group))
		scores := make([]float32, len(group))
		for i, r := range group {
			boxes[i] = r.Box.Image()
			scores[i] = r.Score
		}
		for _, idx := range gocv.NMSBoxes(boxes, scores, 0, nmsThreshold) {
			kept = append(kept, group[idx])
		}
	}

	postprocess.SortByScore(kept)
	return kept
}
