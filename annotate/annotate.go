// Package annotate draws detections onto an image.
//
// Each Render call is one pass: boxes and labels are drawn in the order the
// detector produced them, and every label is placed so that it avoids the
// labels drawn before it in the same pass.
package annotate

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/models"
)

var (
	// HelmetColor is used for boxes and labels of the helmet class.
	HelmetColor = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	// AlertColor is used for every other class.
	AlertColor = color.RGBA{R: 220, G: 20, B: 60, A: 255}
	// TextColor is used for label text.
	TextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer draws boxes and labels.
type Renderer struct {
	face      font.Face
	helmet    color.RGBA
	other     color.RGBA
	text      color.RGBA
	thickness int
	padding   int
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithColors overrides the helmet and non-helmet colors.
func WithColors(helmet, other color.RGBA) Option {
	return func(r *Renderer) {
		r.helmet = helmet
		r.other = other
	}
}

// WithThickness sets the box outline width in pixels.
func WithThickness(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.thickness = px
		}
	}
}

// WithPadding sets the space between label text and its background edge.
func WithPadding(px int) Option {
	return func(r *Renderer) {
		if px >= 0 {
			r.padding = px
		}
	}
}

// WithFace sets the label font.
func WithFace(face font.Face) Option {
	return func(r *Renderer) {
		if face != nil {
			r.face = face
		}
	}
}

// NewRenderer returns a Renderer using basicfont.Face7x13.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		face:      basicfont.Face7x13,
		helmet:    HelmetColor,
		other:     AlertColor,
		text:      TextColor,
		thickness: 2,
		padding:   3,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ColorFor returns the color used for a class.
func (r *Renderer) ColorFor(className string) color.RGBA {
	if className == models.ClassHelmet {
		return r.helmet
	}
	return r.other
}

// MeasureLabel returns the background size of a label for text.
func (r *Renderer) MeasureLabel(text string) images.Size {
	d := &font.Drawer{Face: r.face}
	width := d.MeasureString(text).Ceil()
	m := r.face.Metrics()
	height := (m.Ascent + m.Descent).Ceil()
	return images.Size{Width: width + 2*r.padding, Height: height + 2*r.padding}
}

// Render copies img and draws every detection on the copy.
//
// Arguments:
//   - img: The decoded source image. It is not modified.
//   - detections: Detections in detector order.
//
// Returns:
//   - *image.RGBA: The annotated copy.
//   - []images.Rect: The label rectangles in the order they were drawn.
func (r *Renderer) Render(img image.Image, detections []inference.Detection) (*image.RGBA, []images.Rect) {
	dst := images.ToRGBA(img)
	b := dst.Bounds()
	canvas := images.Size{Width: b.Dx(), Height: b.Dy()}

	placed := make([]images.Rect, 0, len(detections))
	for _, det := range detections {
		c := r.ColorFor(det.ClassName)
		r.drawBox(dst, det.Box, c)

		text := det.Label()
		size := r.MeasureLabel(text)
		p := images.PlaceLabel(det.Box, size, canvas, placed)
		rect := images.LabelRect(p, size)

		draw.Draw(dst, rect.Image().Intersect(b), &image.Uniform{C: c}, image.Point{}, draw.Src)
		r.drawText(dst, p, text)

		placed = append(placed, rect)
	}
	return dst, placed
}

// drawBox draws an outline of r.thickness pixels inside box.
func (r *Renderer) drawBox(dst *image.RGBA, box images.Rect, c color.RGBA) {
	src := &image.Uniform{C: c}
	b := dst.Bounds()
	t := min(r.thickness, box.Width(), box.Height())
	if t <= 0 {
		return
	}

	edges := []image.Rectangle{
		image.Rect(box.X1, box.Y1, box.X2, box.Y1+t),
		image.Rect(box.X1, box.Y2-t, box.X2, box.Y2),
		image.Rect(box.X1, box.Y1, box.X1+t, box.Y2),
		image.Rect(box.X2-t, box.Y1, box.X2, box.Y2),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(b), src, image.Point{}, draw.Src)
	}
}

// drawText draws text with its label background's top-left corner at p.
func (r *Renderer) drawText(dst *image.RGBA, p image.Point, text string) {
	ascent := r.face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.text),
		Face: r.face,
		Dot:  fixed.P(p.X+r.padding, p.Y+r.padding+ascent),
	}
	d.DrawString(text)
}
