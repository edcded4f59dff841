package registration

import "gonum.org/v1/gonum/mat"

// PixelSet abstracts over "every pixel of the level" (dense mode) and "the
// selected coordinates" (sparse mode), so the ADMM step function (admm.go)
// can be written once and run in either mode -- the same capability-
// dispatch idiom the teacher uses to pick a rendering backend
// (internal/fit/renderer/backend.go's NewRendererForBackend), generalized
// here to pixel selection instead of a CPU/GPU choice.
type PixelSet interface {
	// Len returns the number of pixels in the set.
	Len() int
	// Coord returns the (x, y) image coordinate of the i-th pixel.
	Coord(i int) Coord
}

// DenseSet is every pixel of a width x height level, in column-major
// order (x varies slowest) to match spec.md §3's column-major storage
// convention for the registered-image matrices.
type DenseSet struct {
	Width, Height int
}

func (d DenseSet) Len() int { return d.Width * d.Height }

func (d DenseSet) Coord(i int) Coord {
	return Coord{X: i / d.Height, Y: i % d.Height}
}

// SparseSet is an explicit list of selected coordinates.
type SparseSet struct {
	Coords []Coord
}

func (s SparseSet) Len() int { return len(s.Coords) }

func (s SparseSet) Coord(i int) Coord { return s.Coords[i] }

// SelectSparsePixels picks the coordinates where the maximum, over all
// images, of the squared gradient norm exceeds threshold (spec.md §4.7).
// gradNorms holds one squared-norm matrix per image at the current level.
func SelectSparsePixels(gradNorms []*mat.Dense, threshold float64) SparseSet {
	if len(gradNorms) == 0 {
		return SparseSet{}
	}
	h, w := gradNorms[0].Dims()
	var coords []Coord
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var maxNorm float64
			for _, g := range gradNorms {
				if v := g.At(y, x); v > maxNorm {
					maxNorm = v
				}
			}
			if maxNorm > threshold {
				coords = append(coords, Coord{X: x, Y: y})
			}
		}
	}
	return SparseSet{Coords: coords}
}

// ChooseMode decides dense vs sparse mode for a level: sparse runs when
// the selected-pixel ratio falls below sparseRatioThreshold (spec.md
// §4.7/§4.10).
func ChooseMode(selected SparseSet, width, height int, sparseRatioThreshold float64) (dense bool, ratio float64) {
	total := width * height
	if total == 0 {
		return true, 0
	}
	ratio = float64(len(selected.Coords)) / float64(total)
	return ratio >= sparseRatioThreshold, ratio
}
