package registration

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BuildPyramid constructs the Gaussian-mean multi-resolution pyramid of
// spec.md §4.1: level 0 is img itself; level l+1 averages disjoint 2x2
// blocks of level l and truncates toward zero, dropping odd trailing
// rows/columns. Returns exactly levels entries (levels >= 1).
func BuildPyramid(img *mat.Dense, levels int) []*mat.Dense {
	pyramid := make([]*mat.Dense, levels)
	pyramid[0] = img
	for l := 1; l < levels; l++ {
		pyramid[l] = downsample(pyramid[l-1])
	}
	return pyramid
}

// downsample averages disjoint 2x2 blocks and truncates toward zero.
func downsample(m *mat.Dense) *mat.Dense {
	h, w := m.Dims()
	nh, nw := h/2, w/2
	out := mat.NewDense(nh, nw, nil)
	for y := 0; y < nh; y++ {
		for x := 0; x < nw; x++ {
			sum := m.At(2*y, 2*x) + m.At(2*y, 2*x+1) + m.At(2*y+1, 2*x) + m.At(2*y+1, 2*x+1)
			out.Set(y, x, math.Trunc(sum/4))
		}
	}
	return out
}

// TransposePyramids turns a per-image list of pyramid levels into a
// per-level list of images (spec.md §4.1's "transpose operation"),
// mirroring the Rust source's utils::transpose used on Vec<Levels<_>>.
func TransposePyramids(perImage [][]*mat.Dense) [][]*mat.Dense {
	if len(perImage) == 0 {
		return nil
	}
	levels := len(perImage[0])
	perLevel := make([][]*mat.Dense, levels)
	for l := 0; l < levels; l++ {
		perLevel[l] = make([]*mat.Dense, len(perImage))
		for i, levelsForImage := range perImage {
			perLevel[l][i] = levelsForImage[l]
		}
	}
	return perLevel
}
