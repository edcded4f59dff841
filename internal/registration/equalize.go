package registration

import "gonum.org/v1/gonum/mat"

// Equalize rescales each image so its mean intensity, in normalized
// [0,1] units (dividing by imageMax), equals targetMean. Pixels are
// saturated to [0, imageMax] (spec.md §4.6). Images are modified in
// place.
func Equalize(imgs []*mat.Dense, imageMax, targetMean float64) {
	for _, img := range imgs {
		h, w := img.Dims()
		n := float64(h * w)
		if n == 0 {
			continue
		}
		var sum float64
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				sum += img.At(y, x)
			}
		}
		mean := sum / n / imageMax
		if mean == 0 {
			continue
		}
		scale := targetMean / mean
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := img.At(y, x) * scale
				if v < 0 {
					v = 0
				}
				if v > imageMax {
					v = imageMax
				}
				img.Set(y, x, v)
			}
		}
	}
}
