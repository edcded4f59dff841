package registration

import "gonum.org/v1/gonum/mat"

// CropImage returns a bounds-checked submatrix copy of m restricted to
// rect, failing with BadCropBoundsError if the rectangle exits the image
// or is inverted (spec.md §4.5).
func CropImage(rect Rect, m *mat.Dense) (*mat.Dense, error) {
	h, w := m.Dims()
	if rect.X1 >= rect.X2 || rect.Y1 >= rect.Y2 ||
		rect.X1 < 0 || rect.Y1 < 0 || rect.X2 > w || rect.Y2 > h {
		return nil, &BadCropBoundsError{Rect: rect, Width: w, Height: h}
	}
	out := mat.NewDense(rect.Dy(), rect.Dx(), nil)
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.Set(y, x, m.At(rect.Y1+y, rect.X1+x))
		}
	}
	return out, nil
}
