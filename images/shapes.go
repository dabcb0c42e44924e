// Package images - Geometry, decoding and resizing helpers shared by the detector and the renderer.
package images

import "image"

// Rect is a lightweight axis-aligned box in pixel coordinates.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// RectFromImage converts an image.Rectangle into a Rect.
func RectFromImage(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Image returns r as an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns the vertical extent of r.
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Area returns the area of r, or 0 for degenerate rectangles.
func (r Rect) Area() int {
	if r.X2 <= r.X1 || r.Y2 <= r.Y1 {
		return 0
	}
	return (r.X2 - r.X1) * (r.Y2 - r.Y1)
}

// Intersects reports whether r and o share a region of non-zero area.
//
// The test is open-interval: rectangles that only touch along an edge or a
// corner do not intersect.
func (r Rect) Intersects(o Rect) bool {
	return r.X1 < o.X2 && r.X2 > o.X1 && r.Y1 < o.Y2 && r.Y2 > o.Y1
}

// Within reports whether r lies fully inside [0, bounds.Width] x [0, bounds.Height].
func (r Rect) Within(bounds Size) bool {
	return r.X1 >= 0 && r.Y1 >= 0 && r.X2 <= bounds.Width && r.Y2 <= bounds.Height
}

// CalculateIoU returns the Intersection over Union of two rectangles, a value
// in [0, 1]. Non-overlapping or degenerate inputs yield 0.
//
// Example:
//
//	a := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
//	b := Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}
//	CalculateIoU(a, b) // 25 / 175 = 0.142857
func CalculateIoU(r, o Rect) float32 {
	ix1 := max(r.X1, o.X1)
	iy1 := max(r.Y1, o.Y1)
	ix2 := min(r.X2, o.X2)
	iy2 := min(r.Y2, o.Y2)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return float32(interArea) / float32(unionArea)
}
