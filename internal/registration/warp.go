package registration

import "gonum.org/v1/gonum/mat"

// WarpImage resamples img under theta at every pixel of its own grid,
// producing the registered image the way the driver's internal W columns
// are built (spec.md §4.3), for debug-artifact output.
func WarpImage(img *mat.Dense, theta MotionParams) *mat.Dense {
	h, w := img.Dims()
	out := mat.NewDense(h, w, nil)
	m := theta.ToMatrix()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sx, sy := m.transform(float64(x), float64(y))
			out.Set(y, x, LinearSample(sx, sy, img))
		}
	}
	return out
}
