package registration

import "gonum.org/v1/gonum/mat"

// GradField holds a per-pixel (gx, gy) gradient field for one image level
// (spec.md §4.2).
type GradField struct {
	Gx, Gy *mat.Dense
}

// Centered computes centered finite differences on the interior, with
// one-sided (forward/backward) differences on the 1-pixel border
// (spec.md §4.2).
func Centered(m *mat.Dense) GradField {
	h, w := m.Dims()
	gx := mat.NewDense(h, w, nil)
	gy := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx float64
			switch {
			case w == 1:
				dx = 0
			case x == 0:
				dx = m.At(y, x+1) - m.At(y, x)
			case x == w-1:
				dx = m.At(y, x) - m.At(y, x-1)
			default:
				dx = (m.At(y, x+1) - m.At(y, x-1)) / 2
			}

			var dy float64
			switch {
			case h == 1:
				dy = 0
			case y == 0:
				dy = m.At(y+1, x) - m.At(y, x)
			case y == h-1:
				dy = m.At(y, x) - m.At(y-1, x)
			default:
				dy = (m.At(y+1, x) - m.At(y-1, x)) / 2
			}

			gx.Set(y, x, dx)
			gy.Set(y, x, dy)
		}
	}
	return GradField{Gx: gx, Gy: gy}
}

// SquaredNorm computes ||grad||^2 = gx^2 + gy^2 per pixel directly from an
// image level (spec.md §4.2), used by the sparse selector.
func SquaredNorm(m *mat.Dense) *mat.Dense {
	g := Centered(m)
	h, w := m.Dims()
	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := g.Gx.At(y, x)
			gy := g.Gy.At(y, x)
			out.Set(y, x, gx*gx+gy*gy)
		}
	}
	return out
}
