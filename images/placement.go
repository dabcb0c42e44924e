package images

import "image"

const (
	// labelGapAbove separates a label placed above its box from the box's top edge.
	labelGapAbove = 15
	// labelGap separates labels placed below, beside or inside a box.
	labelGap = 5
)

// PlaceLabel picks the top-left corner for a label background of the given
// size attached to box.
//
// Five candidates are tried in order: above the box, below it, to its right,
// to its left and just inside its top edge. The first candidate whose
// rectangle stays inside canvas and does not intersect any rectangle in placed
// wins. When every candidate is rejected the position above the box is
// returned unchanged, even if it leaves the canvas or overlaps an earlier
// label.
//
// PlaceLabel never modifies placed. Callers own the slice for the duration of
// one render pass and append the rectangle they actually drew, so that later
// labels avoid earlier ones. Input order therefore matters and is not changed
// here.
func PlaceLabel(box Rect, label Size, canvas Size, placed []Rect) image.Point {
	p, _ := placeLabel(box, label, canvas, placed)
	return p
}

// LabelRect returns the label background rectangle whose top-left corner is p.
func LabelRect(p image.Point, label Size) Rect {
	return Rect{X1: p.X, Y1: p.Y, X2: p.X + label.Width, Y2: p.Y + label.Height}
}

// labelCandidates lists the candidate corners for a label in priority order.
func labelCandidates(box Rect, label Size) [5]image.Point {
	return [5]image.Point{
		{X: box.X1, Y: box.Y1 - label.Height - labelGapAbove},
		{X: box.X1, Y: box.Y2 + label.Height + labelGap},
		{X: box.X2 + labelGap, Y: box.Y1},
		{X: box.X1 - label.Width - labelGap, Y: box.Y1},
		{X: box.X1, Y: box.Y1 + label.Height + labelGap},
	}
}

// placeLabel is PlaceLabel that also reports whether the fallback was used.
func placeLabel(box Rect, label Size, canvas Size, placed []Rect) (image.Point, bool) {
	candidates := labelCandidates(box, label)

	for _, c := range candidates {
		r := LabelRect(c, label)
		if !r.Within(canvas) {
			continue
		}
		if overlapsAny(r, placed) {
			continue
		}
		return c, false
	}

	return candidates[0], true
}

func overlapsAny(r Rect, placed []Rect) bool {
	for _, p := range placed {
		if r.Intersects(p) {
			return true
		}
	}
	return false
}
