// Package registration implements the multi-resolution, alternating-
// direction joint estimator: per-image affine warps that bring a burst of
// slightly misaligned images into geometric agreement while explaining the
// stack as a low-rank matrix corrupted by sparse additive errors.
package registration

// MotionParams holds the six affine parameters (p0..p5) of spec.md §3:
//
//	[1+p0   p2    p4]
//	[ p1   1+p3   p5]
//	[  0    0     1 ]
//
// p4, p5 are translations in pixels; the other four are the first-order
// linear terms. The zero value is the identity warp.
type MotionParams [6]float64

// Identity returns the zero motion (the identity warp).
func Identity() MotionParams {
	return MotionParams{}
}

// DoubleTranslation doubles the translation components (p4, p5), leaving
// the linear terms untouched. Called when descending one pyramid level
// (spec.md §3 invariant 2).
func (p *MotionParams) DoubleTranslation() {
	p[4] *= 2
	p[5] *= 2
}

// Rect is an axis-aligned crop window in image coordinates, x1 < x2 and
// y1 < y2 (spec.md §3 Configuration, "crop").
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Dx returns the rectangle width.
func (r Rect) Dx() int { return r.X2 - r.X1 }

// Dy returns the rectangle height.
func (r Rect) Dy() int { return r.Y2 - r.Y1 }

// Coord is a pixel location in (x=column, y=row) Cartesian order.
type Coord struct {
	X, Y int
}
