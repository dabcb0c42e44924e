package inference

import (
	"context"
	"fmt"
	"image"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/models/postprocess"
	"github.com/nvr-ai/hardhat/models/yolov8"
)

// ONNXDetector runs an exported YOLOv8 model through onnxruntime.
type ONNXDetector struct {
	config  Config
	session *Session
	// mu guards the shared input and output tensors.
	mu sync.Mutex
}

// NewONNXDetector loads the model and binds its tensors.
//
// Arguments:
//   - config: The detector configuration.
//
// Returns:
//   - *ONNXDetector: A ready detector. Close releases the native resources.
//   - error: An error if the configuration is invalid or the model fails to load.
func NewONNXDetector(config Config) (*ONNXDetector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := int64(config.InputSize)
	session, err := NewSession(SessionArgs{
		ModelPath:   config.ModelPath,
		LibraryPath: config.LibraryPath,
		InputName:   "images",
		OutputName:  "output0",
		InputShape:  ort.NewShape(1, 3, s, s),
		OutputShape: ort.NewShape(yolov8.OutputShape(config.Classes.Len(), config.Anchors)...),
		Provider:    config.Provider,
	})
	if err != nil {
		return nil, err
	}

	return &ONNXDetector{config: config, session: session}, nil
}

// Detect runs inference on img and returns detections sorted by descending
// confidence.
func (d *ONNXDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil, ErrDetectorClosed
	}

	scale, err := PrepareInput(img, d.config.InputSize, d.session.Input.GetData())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare input: %w", err)
	}

	if err := d.session.Session.Run(); err != nil {
		return nil, fmt.Errorf("failed to run inference: %w", err)
	}

	b := img.Bounds()
	results, err := yolov8.Decode(
		d.session.Output.GetData(),
		d.session.Output.GetShape(),
		scale,
		images.Size{Width: b.Dx(), Height: b.Dy()},
		yolov8.Config{
			NumClasses:          d.config.Classes.Len(),
			ConfidenceThreshold: d.config.ConfidenceThreshold,
			NMS:                 &postprocess.NMSConfig{IoUThreshold: d.config.NMSThreshold, ClassAware: true},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}

	return FromResults(results, d.config.Classes), nil
}

// Close releases the session and its tensors. It is safe to call twice.
func (d *ONNXDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.session == nil {
		return nil
	}
	err := d.session.Close()
	d.session = nil
	return err
}
