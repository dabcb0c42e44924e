package images

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/chewxy/math32"
	"github.com/nfnt/resize"
)

// LetterboxFill is the grey used to pad letterboxed model inputs.
var LetterboxFill = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// ScaleInfo records how an image was mapped into a letterboxed square.
type ScaleInfo struct {
	// Scale is the uniform factor applied to the source image.
	Scale float32 `json:"scale" yaml:"scale"`
	// PadLeft is the horizontal offset of the resized image inside the square.
	PadLeft int `json:"pad_left" yaml:"pad_left"`
	// PadTop is the vertical offset of the resized image inside the square.
	PadTop int `json:"pad_top" yaml:"pad_top"`
}

// Unmap converts a point in letterboxed coordinates back to the source image.
func (s ScaleInfo) Unmap(x, y float32) (float32, float32) {
	if s.Scale == 0 {
		return x, y
	}
	return (x - float32(s.PadLeft)) / s.Scale, (y - float32(s.PadTop)) / s.Scale
}

// Letterbox resizes img to fit a size x size square while keeping its aspect
// ratio, centring it on a LetterboxFill background.
//
// Arguments:
//   - img: The source image.
//   - size: The side of the output square.
//
// Returns:
//   - *image.RGBA: The size x size letterboxed image.
//   - ScaleInfo: The scale and padding needed to undo the mapping.
func Letterbox(img image.Image, size int) (*image.RGBA, ScaleInfo) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: LetterboxFill}, image.Point{}, draw.Src)

	if w == 0 || h == 0 || size <= 0 {
		return dst, ScaleInfo{Scale: 1}
	}

	scale := math32.Min(float32(size)/float32(w), float32(size)/float32(h))
	nw := int(math32.Round(float32(w) * scale))
	nh := int(math32.Round(float32(h) * scale))
	nw = max(1, min(nw, size))
	nh = max(1, min(nh, size))

	resized := resize.Resize(uint(nw), uint(nh), img, resize.Bilinear)

	padLeft := (size - nw) / 2
	padTop := (size - nh) / 2
	draw.Draw(dst, image.Rect(padLeft, padTop, padLeft+nw, padTop+nh), resized, resized.Bounds().Min, draw.Src)

	return dst, ScaleInfo{Scale: scale, PadLeft: padLeft, PadTop: padTop}
}

// ToRGBA copies img into a fresh *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
