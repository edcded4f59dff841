package registration

import "gonum.org/v1/gonum/mat"

// LinearSample bilinearly samples m at the real-valued coordinate (x,y).
// Outside [0, W-1] x [0, H-1] the sample is extrapolated linearly from the
// nearest edge: indices are clamped to the valid range while the
// fractional weights are kept as computed from the true (unclamped)
// coordinate, so the result stays continuous across the boundary and
// keeps extrapolating linearly beyond it (spec.md §4.3).
func LinearSample(x, y float64, m *mat.Dense) float64 {
	h, w := m.Dims()

	x0, x1, fx := resolveAxis(x, w)
	y0, y1, fy := resolveAxis(y, h)

	v00 := m.At(y0, x0)
	v01 := m.At(y0, x1)
	v10 := m.At(y1, x0)
	v11 := m.At(y1, x1)

	top := v00 + fx*(v01-v00)
	bottom := v10 + fx*(v11-v10)
	return top + fy*(bottom-top)
}

// resolveAxis picks the two adjacent, in-bounds grid indices (i0, i1 =
// i0+1) that straddle v, pinning the pair to the nearest valid interval
// when v falls outside [0, n-1] rather than clamping i0 and i1
// independently -- doing the latter would collapse both indices onto the
// same boundary pixel and erase the slope needed to extrapolate linearly
// past the edge (spec.md §4.3).
func resolveAxis(v float64, n int) (i0, i1 int, f float64) {
	if n == 1 {
		return 0, 0, 0
	}
	i0 = floorInt(v)
	if i0 < 0 {
		i0 = 0
	}
	if i0 > n-2 {
		i0 = n - 2
	}
	return i0, i0 + 1, v - float64(i0)
}

func floorInt(v float64) int {
	i := int(v)
	if v < float64(i) {
		i--
	}
	return i
}
