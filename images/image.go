package images

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyImage is returned when there are no bytes to decode.
	ErrEmptyImage = errors.New("empty image data")
	// ErrUnsupportedFormat is returned when the payload is not JPEG, PNG, GIF or WebP.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge is returned when the header declares more pixels than allowed.
	ErrImageTooLarge = errors.New("image dimensions exceed limit")
)

// DefaultMaxPixels bounds decoded uploads at 50 megapixels.
const DefaultMaxPixels = 50_000_000

// Image describes a decoded upload.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// Size returns the pixel dimensions of the image.
func (i Image) Size() Size {
	return Size{Width: i.Width, Height: i.Height}
}

// Decode decodes a JPEG, PNG, GIF or WebP payload of at most DefaultMaxPixels.
func Decode(data []byte) (image.Image, Image, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit decodes a JPEG, PNG, GIF or WebP payload. The header is read
// first so that oversized images are rejected before any pixels are allocated.
//
// Arguments:
//   - data: The encoded image bytes.
//   - maxPixels: The largest accepted width*height. Zero or less disables the check.
//
// Returns:
//   - image.Image: The decoded pixels.
//   - Image: The detected format and dimensions.
//   - error: ErrEmptyImage, ErrUnsupportedFormat, ErrImageTooLarge or a wrapped codec error.
func DecodeLimit(data []byte, maxPixels int) (image.Image, Image, error) {
	if len(data) == 0 {
		return nil, Image{}, ErrEmptyImage
	}

	format := DetectFormat(data)

	var (
		decodeConfig func(io.Reader) (image.Config, error)
		decode       func(io.Reader) (image.Image, error)
	)
	switch format {
	case FormatJPEG:
		decodeConfig, decode = jpeg.DecodeConfig, jpeg.Decode
	case FormatPNG:
		decodeConfig, decode = png.DecodeConfig, png.Decode
	case FormatGIF:
		decodeConfig, decode = gif.DecodeConfig, gif.Decode
	case FormatWebP:
		decodeConfig, decode = webp.DecodeConfig, webp.Decode
	default:
		return nil, Image{}, ErrUnsupportedFormat
	}

	cfg, err := decodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, Image{}, errors.Wrapf(err, "failed to read %s header", format)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, Image{}, errors.Wrapf(ErrImageTooLarge, "%dx%d %s image, limit %d pixels",
			cfg.Width, cfg.Height, format, maxPixels)
	}

	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, Image{}, errors.Wrapf(err, "failed to decode %s image", format)
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, Image{}, errors.Errorf("decoded %s image has no pixels", format)
	}

	return img, Image{Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}
