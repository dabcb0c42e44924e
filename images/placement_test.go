package images

import (
	"image"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceLabel_PrefersAbove(t *testing.T) {
	box := Rect{X1: 100, Y1: 100, X2: 200, Y2: 150}
	got := PlaceLabel(box, Size{Width: 80, Height: 20}, Size{Width: 640, Height: 480}, nil)
	assert.Equal(t, image.Pt(100, 65), got)
}

func TestPlaceLabel_Fallback(t *testing.T) {
	box := Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}
	p, fallback := placeLabel(box, Size{Width: 500, Height: 500}, Size{Width: 20, Height: 20}, nil)

	assert.True(t, fallback)
	assert.Equal(t, image.Pt(0, -515), p)
	assert.Equal(t, p, PlaceLabel(box, Size{Width: 500, Height: 500}, Size{Width: 20, Height: 20}, nil))
}

func TestPlaceLabel_Candidates(t *testing.T) {
	canvas := Size{Width: 640, Height: 480}
	label := Size{Width: 50, Height: 10}

	tests := []struct {
		name     string
		box      Rect
		placed   []Rect
		expected image.Point
	}{
		{
			name:     "above",
			box:      Rect{X1: 100, Y1: 100, X2: 200, Y2: 150},
			expected: image.Pt(100, 75),
		},
		{
			name:     "below when the top is clipped",
			box:      Rect{X1: 100, Y1: 10, X2: 200, Y2: 60},
			expected: image.Pt(100, 75),
		},
		{
			name:     "right when above and below are clipped",
			box:      Rect{X1: 100, Y1: 10, X2: 200, Y2: 470},
			expected: image.Pt(205, 10),
		},
		{
			name:     "below rejected when the label bottom crosses the canvas",
			box:      Rect{X1: 100, Y1: 5, X2: 200, Y2: 460},
			expected: image.Pt(205, 5),
		},
		{
			name:     "left when the right side is clipped too",
			box:      Rect{X1: 300, Y1: 10, X2: 630, Y2: 470},
			expected: image.Pt(245, 10),
		},
		{
			name:     "inside when every outside slot is clipped",
			box:      Rect{X1: 0, Y1: 10, X2: 630, Y2: 470},
			expected: image.Pt(0, 25),
		},
		{
			name:     "edge-touching label is not an overlap",
			box:      Rect{X1: 100, Y1: 100, X2: 200, Y2: 150},
			placed:   []Rect{{X1: 150, Y1: 75, X2: 200, Y2: 85}},
			expected: image.Pt(100, 75),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := placeLabel(tt.box, label, canvas, tt.placed)
			assert.False(t, fallback)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPlaceLabel_AvoidsPlacedLabels(t *testing.T) {
	canvas := Size{Width: 640, Height: 480}
	label := Size{Width: 50, Height: 10}
	first := Rect{X1: 100, Y1: 100, X2: 200, Y2: 150}
	second := Rect{X1: 100, Y1: 105, X2: 200, Y2: 155}

	var placed []Rect
	p1 := PlaceLabel(first, label, canvas, placed)
	require.Equal(t, image.Pt(100, 75), p1)
	placed = append(placed, LabelRect(p1, label))

	// Above the second box would cover the first label, so it drops below.
	p2 := PlaceLabel(second, label, canvas, placed)
	assert.Equal(t, image.Pt(100, 170), p2)
	assert.False(t, LabelRect(p2, label).Intersects(placed[0]))
}

func TestPlaceLabel_FollowsCallerOrder(t *testing.T) {
	canvas := Size{Width: 640, Height: 480}
	label := Size{Width: 50, Height: 10}
	a := Rect{X1: 100, Y1: 100, X2: 200, Y2: 150}
	b := Rect{X1: 100, Y1: 105, X2: 200, Y2: 155}

	run := func(boxes ...Rect) []image.Point {
		var placed []Rect
		out := make([]image.Point, 0, len(boxes))
		for _, box := range boxes {
			p := PlaceLabel(box, label, canvas, placed)
			placed = append(placed, LabelRect(p, label))
			out = append(out, p)
		}
		return out
	}

	ab := run(a, b)
	assert.Equal(t, []image.Point{image.Pt(100, 75), image.Pt(100, 170)}, ab)

	ba := run(b, a)
	assert.Equal(t, []image.Point{image.Pt(100, 80), image.Pt(100, 165)}, ba)
}

func TestPlaceLabel_DoesNotModifyPlaced(t *testing.T) {
	placed := []Rect{{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	before := append([]Rect(nil), placed...)

	PlaceLabel(Rect{X1: 100, Y1: 100, X2: 200, Y2: 150}, Size{Width: 40, Height: 12}, Size{Width: 640, Height: 480}, placed)

	assert.Equal(t, before, placed)
	assert.Len(t, placed, 1)
}

func TestPlaceLabel_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1024))
	canvas := Size{Width: 640, Height: 480}

	for pass := 0; pass < 200; pass++ {
		var placed []Rect
		n := 1 + rng.IntN(12)

		for i := 0; i < n; i++ {
			x1 := rng.IntN(canvas.Width - 20)
			y1 := rng.IntN(canvas.Height - 20)
			box := Rect{
				X1: x1,
				Y1: y1,
				X2: x1 + 1 + rng.IntN(canvas.Width-x1-1),
				Y2: y1 + 1 + rng.IntN(canvas.Height-y1-1),
			}
			label := Size{Width: 10 + rng.IntN(120), Height: 8 + rng.IntN(20)}

			p, fallback := placeLabel(box, label, canvas, placed)

			// Same inputs, same answer.
			again, againFallback := placeLabel(box, label, canvas, placed)
			require.Equal(t, p, again)
			require.Equal(t, fallback, againFallback)

			r := LabelRect(p, label)
			if fallback {
				assert.Equal(t, image.Pt(box.X1, box.Y1-label.Height-labelGapAbove), p)
			} else {
				require.Truef(t, r.Within(canvas), "pass %d label %d out of bounds: %+v", pass, i, r)
				for _, prev := range placed {
					require.Falsef(t, r.Intersects(prev), "pass %d label %d overlaps %+v", pass, i, prev)
				}
			}
			placed = append(placed, r)
		}
	}
}
