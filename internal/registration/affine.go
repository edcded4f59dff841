package registration

import "fmt"

// mat3 is a row-major 3x3 matrix: m[row*3+col]. Affine motion is closed
// enough (fixed 3x3/6-vector shapes) that a hand-rolled type, with the
// closed-form inverse spec.md §4.4 calls for, is clearer than routing
// through gonum's general-purpose mat.Dense for something this small;
// every N x K matrix the ADMM core actually needs dense/SVD/Cholesky
// support for does use gonum (see admm.go).
type mat3 [9]float64

// ToMatrix converts a motion vector to its 3x3 projective matrix
// (spec.md §3).
func (p MotionParams) ToMatrix() mat3 {
	return mat3{
		1 + p[0], p[2], p[4],
		p[1], 1 + p[3], p[5],
		0, 0, 1,
	}
}

// fromMatrix recovers a motion vector from a 3x3 projective matrix whose
// bottom row is assumed to be [0 0 1].
func fromMatrix(m mat3) MotionParams {
	return MotionParams{
		m[0] - 1, m[3], m[1], m[4] - 1, m[2], m[5],
	}
}

// compose returns a*b.
func (a mat3) compose(b mat3) mat3 {
	var out mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[row*3+k] * b[k*3+col]
			}
			out[row*3+col] = sum
		}
	}
	return out
}

// invert computes the closed-form inverse of the 3x3 matrix, failing only
// if the top-left 2x2 linear part is singular (spec.md §4.4: "fails only
// if the 2x2 linear part is singular (treat as fatal)"). Because the
// bottom row of an affine matrix is always [0 0 1], the determinant of the
// full 3x3 reduces to the determinant of that 2x2 block.
func (m mat3) invert() (mat3, error) {
	a, b, _ := m[0], m[1], m[2]
	c, d, _ := m[3], m[4], m[5]
	e, f := m[6], m[7] // always 0, 0 for affine motion
	_ = e
	_ = f

	det := a*d - b*c
	if det == 0 {
		return mat3{}, fmt.Errorf("singular 2x2 linear part (det=0)")
	}
	invDet := 1 / det
	ia := d * invDet
	ib := -b * invDet
	ic := -c * invDet
	id := a * invDet

	// Translation part: solve [a b; c d] * [tx; ty] = -[tx0; ty0].
	tx, ty := m[2], m[5]
	itx := -(ia*tx + ib*ty)
	ity := -(ic*tx + id*ty)

	return mat3{
		ia, ib, itx,
		ic, id, ity,
		0, 0, 1,
	}, nil
}

// transform applies the matrix to a homogeneous pixel coordinate (x,y,1)
// and returns the resulting (x,y).
func (m mat3) transform(x, y float64) (float64, float64) {
	nx := m[0]*x + m[1]*y + m[2]
	ny := m[3]*x + m[4]*y + m[5]
	return nx, ny
}

// ComposeMotion composes two motions as affine warps: first theta, then
// delta (forward-compositional update of spec.md §4.8 step 3):
// theta <- from_matrix(to_matrix(theta) * to_matrix(delta)).
func ComposeMotion(theta, delta MotionParams) MotionParams {
	return fromMatrix(theta.ToMatrix().compose(delta.ToMatrix()))
}

// InvertMotion inverts a motion, returning an error if its linear part is
// singular (RunADMM reports that as a NumericalFailureError).
func InvertMotion(theta MotionParams) (MotionParams, error) {
	inv, err := theta.ToMatrix().invert()
	if err != nil {
		return MotionParams{}, err
	}
	return fromMatrix(inv), nil
}

// referenceMotion re-expresses rhs in the frame where lhsInverse is the
// reference: from_matrix(lhsInverse * to_matrix(rhs)).
func referenceMotion(lhsInverse mat3, rhs MotionParams) MotionParams {
	return fromMatrix(lhsInverse.compose(rhs.ToMatrix()))
}

// RecoverOriginalMotion maps a motion estimated in the cropped frame back
// to the full image's coordinate frame: T ∘ theta ∘ T^-1, where T is
// translation by the crop offset (spec.md §4.4).
func RecoverOriginalMotion(crop Rect, thetaCrop MotionParams) MotionParams {
	offsetX, offsetY := float64(crop.X1), float64(crop.Y1)
	translate := mat3{
		1, 0, offsetX,
		0, 1, offsetY,
		0, 0, 1,
	}
	translateInv := mat3{
		1, 0, -offsetX,
		0, 1, -offsetY,
		0, 0, 1,
	}
	combined := translate.compose(thetaCrop.ToMatrix()).compose(translateInv)
	return fromMatrix(combined)
}
