package images

import (
	"fmt"
	"image"
	"math/rand/v2"
	"testing"
)

// BenchmarkIoU covers the early exit for disjoint boxes and the full
// calculation for overlapping ones.
func BenchmarkIoU(b *testing.B) {
	cases := []struct {
		name string
		a, o Rect
	}{
		{"disjoint", Rect{0, 0, 100, 100}, Rect{200, 200, 300, 300}},
		{"identical", Rect{50, 50, 150, 150}, Rect{50, 50, 150, 150}},
		{"partial", Rect{0, 0, 100, 100}, Rect{50, 50, 150, 150}},
	}
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = CalculateIoU(c.a, c.o)
			}
		})
	}
}

// crowdedScene returns n boxes packed into a canvas, as in a busy site photo.
func crowdedScene(n int, canvas Size, seed uint64) []Rect {
	rng := rand.New(rand.NewPCG(seed, seed))
	boxes := make([]Rect, n)
	for i := range boxes {
		w := 20 + rng.IntN(60)
		h := 20 + rng.IntN(80)
		x := rng.IntN(canvas.Width - w)
		y := rng.IntN(canvas.Height - h)
		boxes[i] = Rect{X1: x, Y1: y, X2: x + w, Y2: y + h}
	}
	return boxes
}

// BenchmarkPlaceLabel measures one full render pass of label placement. The
// cost grows with the number of labels already placed.
func BenchmarkPlaceLabel(b *testing.B) {
	canvas := Size{Width: 1280, Height: 720}
	label := Size{Width: 83, Height: 19}

	for _, n := range []int{1, 10, 50, 200} {
		boxes := crowdedScene(n, canvas, 42)
		b.Run(fmt.Sprintf("labels=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			placed := make([]Rect, 0, n)
			for i := 0; i < b.N; i++ {
				placed = placed[:0]
				for _, box := range boxes {
					p := PlaceLabel(box, label, canvas, placed)
					placed = append(placed, LabelRect(p, label))
				}
			}
		})
	}
}

func BenchmarkLetterbox(b *testing.B) {
	for _, size := range []image.Point{{640, 480}, {1920, 1080}} {
		src := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
		b.Run(fmt.Sprintf("%dx%d", size.X, size.Y), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Letterbox(src, 640)
			}
		})
	}
}
