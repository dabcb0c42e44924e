// Package service turns an uploaded image into an annotated prediction.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nvr-ai/hardhat/annotate"
	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/models"
	"github.com/nvr-ai/hardhat/profiler"
)

var (
	// ErrModelNotLoaded is returned when the service started without a detector.
	ErrModelNotLoaded = errors.New("model is not loaded")
	// ErrInvalidImage is returned when the upload is empty or cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
)

// Operation names recorded by the profiler.
const (
	OpDecode   = "decode"
	OpDetect   = "detect"
	OpAnnotate = "annotate"
	OpEncode   = "encode"
	OpPredict  = "predict"
)

// Prediction is the result of one /predict call.
type Prediction struct {
	// AnnotatedImage is a JPEG data URI.
	AnnotatedImage string                `json:"annotated_image"`
	Detections     []inference.Detection `json:"detections"`
	Counts         map[string]int        `json:"counts"`
	Width          int                   `json:"width"`
	Height         int                   `json:"height"`
}

// Options configures a Predictor. Every field is optional.
type Options struct {
	Renderer    *annotate.Renderer
	Cache       Cache
	Alerts      AlertPublisher
	Profiler    *profiler.Profiler
	Logger      *zap.Logger
	JPEGQuality int
	// MaxPixels bounds decoded uploads. Zero selects images.DefaultMaxPixels.
	MaxPixels int
}

// Predictor runs detect, annotate and encode for each upload.
type Predictor struct {
	detector  inference.Detector
	renderer  *annotate.Renderer
	cache     Cache
	alerts    AlertPublisher
	profiler  *profiler.Profiler
	logger    *zap.Logger
	quality   int
	maxPixels int
}

// NewPredictor returns a Predictor. A nil detector is allowed: Predict then
// fails with ErrModelNotLoaded so the API can still report its status.
func NewPredictor(detector inference.Detector, opts Options) *Predictor {
	if opts.Renderer == nil {
		opts.Renderer = annotate.NewRenderer()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Profiler == nil {
		opts.Profiler = profiler.New(profiler.Options{}, opts.Logger)
	}
	if opts.JPEGQuality == 0 {
		opts.JPEGQuality = 90
	}
	if opts.MaxPixels == 0 {
		opts.MaxPixels = images.DefaultMaxPixels
	}
	return &Predictor{
		detector:  detector,
		renderer:  opts.Renderer,
		cache:     opts.Cache,
		alerts:    opts.Alerts,
		profiler:  opts.Profiler,
		logger:    opts.Logger,
		quality:   opts.JPEGQuality,
		maxPixels: opts.MaxPixels,
	}
}

// ModelLoaded reports whether a detector is configured.
func (p *Predictor) ModelLoaded() bool {
	return p.detector != nil
}

// Profiler returns the profiler recording this predictor's timings.
func (p *Predictor) Profiler() *profiler.Profiler {
	return p.profiler
}

// Predict decodes data, detects objects, draws them and encodes the result.
//
// Arguments:
//   - ctx: Cancels the prediction before inference starts.
//   - data: The raw uploaded file (JPEG, PNG, GIF or WebP).
//
// Returns:
//   - *Prediction: The annotated image and the detections in draw order.
//   - error: ErrModelNotLoaded, ErrInvalidImage or a wrapped pipeline error.
func (p *Predictor) Predict(ctx context.Context, data []byte) (*Prediction, error) {
	if p.detector == nil {
		return nil, ErrModelNotLoaded
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	defer p.profiler.StartOperation(OpPredict)()

	key := images.Checksum(data)
	if cached := p.lookup(ctx, key); cached != nil {
		return cached, nil
	}

	stop := p.profiler.StartOperation(OpDecode)
	img, meta, err := images.DecodeLimit(data, p.maxPixels)
	stop()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	stop = p.profiler.StartOperation(OpDetect)
	detections, err := p.detector.Detect(ctx, img)
	stop()
	if err != nil {
		return nil, errors.Wrap(err, "detection failed")
	}

	stop = p.profiler.StartOperation(OpAnnotate)
	annotated, _ := p.renderer.Render(img, detections)
	stop()

	stop = p.profiler.StartOperation(OpEncode)
	uri, err := annotate.EncodeDataURI(annotated, p.quality)
	stop()
	if err != nil {
		return nil, err
	}

	pred := &Prediction{
		AnnotatedImage: uri,
		Detections:     detections,
		Counts:         inference.CountByClass(detections),
		Width:          meta.Width,
		Height:         meta.Height,
	}
	p.profiler.RecordMetric("detections", float64(len(detections)))

	p.logger.Debug("prediction complete",
		zap.String("checksum", key),
		zap.String("format", string(meta.Format)),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.Int("detections", len(detections)),
	)

	p.alert(ctx, key, pred)
	p.store(ctx, key, pred)
	return pred, nil
}

func (p *Predictor) lookup(ctx context.Context, key string) *Prediction {
	if p.cache == nil {
		return nil
	}
	pred, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		p.logger.Warn("cache lookup failed", zap.String("checksum", key), zap.Error(err))
		return nil
	}
	if !ok {
		p.profiler.RecordMetric("cache_miss", 1)
		return nil
	}
	p.profiler.RecordMetric("cache_hit", 1)
	return pred
}

func (p *Predictor) store(ctx context.Context, key string, pred *Prediction) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, key, pred); err != nil {
		p.logger.Warn("cache store failed", zap.String("checksum", key), zap.Error(err))
	}
}

// alert publishes a compliance alert when a bare head was detected.
func (p *Predictor) alert(ctx context.Context, key string, pred *Prediction) {
	heads := pred.Counts[models.ClassHead]
	if p.alerts == nil || heads == 0 {
		return
	}
	a := Alert{
		Checksum:  key,
		Heads:     heads,
		Counts:    pred.Counts,
		Timestamp: time.Now().UTC(),
	}
	if err := p.alerts.Publish(ctx, a); err != nil {
		p.logger.Error("failed to publish alert", zap.String("checksum", key), zap.Error(err))
		return
	}
	p.profiler.RecordMetric("alerts", 1)
}

// Close releases the detector and the alert publisher.
func (p *Predictor) Close() error {
	if p.alerts != nil {
		p.alerts.Close()
	}
	if p.detector == nil {
		return nil
	}
	return p.detector.Close()
}
