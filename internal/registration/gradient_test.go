package registration

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCenteredInteriorGradient(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		0, 0, 0,
		0, 0, 0,
		0, 0, 0,
	})
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			m.Set(y, x, float64(x)*2)
		}
	}
	g := Centered(m)
	almostEqual(t, g.Gx.At(1, 1), 2, 1e-9, "interior dx of a linear ramp")
	almostEqual(t, g.Gy.At(1, 1), 0, 1e-9, "interior dy of a horizontal ramp")
}

func TestCenteredOneSidedBorder(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{0, 2, 6})
	g := Centered(m)
	almostEqual(t, g.Gx.At(0, 0), 2, 1e-9, "forward difference at left border")
	almostEqual(t, g.Gx.At(0, 2), 4, 1e-9, "backward difference at right border")
}

func TestCenteredDegenerateDimension(t *testing.T) {
	m := mat.NewDense(1, 1, []float64{5})
	g := Centered(m)
	almostEqual(t, g.Gx.At(0, 0), 0, 1e-12, "single pixel has no x gradient")
	almostEqual(t, g.Gy.At(0, 0), 0, 1e-12, "single pixel has no y gradient")
}

func TestSquaredNorm(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{0, 2, 6})
	out := SquaredNorm(m)
	gx := 2.0 // forward difference at x=0
	want := gx * gx
	almostEqual(t, out.At(0, 0), want, 1e-9, "squared norm at border pixel")
}
