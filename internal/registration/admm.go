package registration

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// StepConfig carries the per-level algorithm parameters the ADMM loop
// needs (spec.md §4.8/§4.9), distinct from the top-level Config: the
// driver resolves Lambda/Rho/etc. once per level and hands this down,
// the same split the Rust source makes between registration::Config and
// its inner StepConfig.
type StepConfig struct {
	DoImageCorrection bool
	Lambda            float64
	Rho               float64
	MaxIterations     int
	Threshold         float64
	BorderFraction    float64
	ImageMax          float64
	Level             int
	Trace             func(TraceEvent)
	Cancel            context.Context
}

// RunADMM runs the ADMM loop of spec.md §4.8 (dense, when pixels is a
// DenseSet covering the whole level) or §4.9 (sparse, when pixels is a
// SparseSet), to convergence or MaxIterations. initMotion seeds theta,
// already rescaled for this level by the driver. images are the original
// (unregistered) images at this level; width/height are the level's full
// dimensions (needed even in sparse mode, for the border-exclusion rule
// and for out-of-set neighbor sampling when computing gradients).
func RunADMM(pixels PixelSet, width, height int, images []*mat.Dense, cfg StepConfig, initMotion []MotionParams) ([]MotionParams, error) {
	n := pixels.Len()
	k := len(images)

	motion := append([]MotionParams(nil), initMotion...)
	coords := make([]Coord, n)
	for i := 0; i < n; i++ {
		coords[i] = pixels.Coord(i)
	}

	W := mat.NewDense(n, k, nil)
	A := mat.NewDense(n, k, nil)
	E := mat.NewDense(n, k, nil)
	U := mat.NewDense(n, k, nil)
	oldA := mat.NewDense(n, k, nil)

	border := int(cfg.BorderFraction * float64(minInt(width, height)))

	projectAll := func() {
		for i := 0; i < k; i++ {
			m := motion[i].ToMatrix()
			for idx, c := range coords {
				sx, sy := m.transform(float64(c.X), float64(c.Y))
				W.Set(idx, i, LinearSample(sx, sy, images[i])/cfg.ImageMax)
			}
		}
	}
	projectAll()

	tracker := newResidualTracker(cfg.Threshold, cfg.MaxIterations)

	emit(cfg.Trace, TraceEvent{Level: cfg.Level, Kind: "level_start", Sparse: !isDense(pixels, width, height)})

	var temp, errorsTemp, residuals mat.Dense

	for iter := 0; ; iter++ {
		if cfg.Cancel != nil && cfg.Cancel.Err() != nil {
			return motion, &CancelledError{Partial: append([]MotionParams(nil), motion...)}
		}

		lambda := cfg.Lambda / math.Sqrt(float64(n))

		// A-update: nuclear-norm shrink of the thin SVD of W+E+U.
		temp.Add(W, E)
		temp.Add(&temp, U)
		nuclear, err := nuclearShrink(&temp, 1/cfg.Rho, A)
		if err != nil {
			return motion, err
		}

		// E-update: L1 shrink of A - W - U (or pinned to zero).
		errorsTemp.Sub(A, W)
		errorsTemp.Sub(&errorsTemp, U)
		var l1Norm float64
		if cfg.DoImageCorrection {
			shrinkInto(&errorsTemp, lambda/cfg.Rho, E)
			l1Norm = lambda * absSum(E)
		} else {
			E.Zero()
		}

		// theta-update: forward-compositional Gauss-Newton per image.
		residuals.Sub(&errorsTemp, E)
		for i := 0; i < k; i++ {
			m := motion[i].ToMatrix()
			delta, ok := gaussNewtonStep(images[i], m, coords, width, height, border, &residuals, i)
			if ok {
				motion[i] = ComposeMotion(motion[i], delta)
			}
		}

		// Reference normalization: image 0 becomes the identity
		// (spec.md §3 invariant 3).
		refInv, err := InvertMotion(motion[0])
		if err != nil {
			return motion, &NumericalFailureError{
				Msg:     "singular reference motion: " + err.Error(),
				Partial: append([]MotionParams(nil), motion...),
			}
		}
		refInvMat := refInv.ToMatrix()
		for i := range motion {
			motion[i] = referenceMotion(refInvMat, motion[i])
		}

		// Reproject with the updated motion.
		projectAll()

		// Dual ascent: U holds Y/rho throughout (spec.md §3 invariant 5).
		U.Add(U, W)
		U.Sub(U, A)
		U.Add(U, E)

		residual, stop := tracker.update(iter, A, oldA)
		emit(cfg.Trace, TraceEvent{
			Level: cfg.Level, Iteration: iter, Kind: "iteration",
			Nuclear: nuclear, L1: l1Norm, Residual: residual,
		})
		oldA.Copy(A)
		if stop {
			break
		}
	}

	emit(cfg.Trace, TraceEvent{Level: cfg.Level, Kind: "level_done"})
	return motion, nil
}

// nuclearShrink computes the thin SVD of m, soft-thresholds its singular
// values by alpha, and writes the recomposed low-rank matrix into dst
// (spec.md §4.8 step 1). Returns the nuclear norm of the shrunk matrix
// (sum of the shrunk singular values), used only for trace diagnostics.
func nuclearShrink(m *mat.Dense, alpha float64, dst *mat.Dense) (float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(m, mat.SVDThin); !ok {
		return 0, &NumericalFailureError{Msg: "SVD factorization failed"}
	}
	values := svd.Values(nil)
	var nuclear float64
	for i := range values {
		values[i] = shrink(alpha, values[i])
		nuclear += values[i]
	}
	var uMat, vMat mat.Dense
	svd.UTo(&uMat)
	svd.VTo(&vMat)
	sigma := mat.NewDiagDense(len(values), values)
	var scaled mat.Dense
	scaled.Mul(&uMat, sigma)
	dst.Mul(&scaled, vMat.T())
	return nuclear, nil
}

// shrink is the soft-thresholding proximal operator of the L1/nuclear
// norms: shrink_alpha(x) = sign(x) * max(|x|-alpha, 0) (spec.md §4.8).
func shrink(alpha, x float64) float64 {
	alpha = math.Abs(alpha)
	if x >= 0 {
		return math.Max(x-alpha, 0)
	}
	return math.Min(x+alpha, 0)
}

func shrinkInto(src *mat.Dense, alpha float64, dst *mat.Dense) {
	r, c := src.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, shrink(alpha, src.At(i, j)))
		}
	}
}

func absSum(m *mat.Dense) float64 {
	r, c := m.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			sum += math.Abs(m.At(i, j))
		}
	}
	return sum
}

// gaussNewtonStep accumulates the Hessian and gradient of the forward-
// compositional Gauss-Newton normal equations for image column col
// (spec.md §4.8 step 3 / §4.9) and solves for the incremental warp via
// Cholesky. The second return is false when the accumulation had no
// usable pixels or the Hessian was not positive-definite -- the caller
// skips the update for this image on this iteration (spec.md §9 open
// question: downgraded from the source's panic).
func gaussNewtonStep(img *mat.Dense, m mat3, coords []Coord, width, height, border int, residuals *mat.Dense, col int) (MotionParams, bool) {
	var hessian [36]float64 // row-major 6x6
	var b [6]float64

	for idx, c := range coords {
		if c.X <= border || c.X+border >= width || c.Y <= border || c.Y+border >= height {
			continue
		}
		gx, gy := registeredGradientAt(img, m, c.X, c.Y, width, height)
		x, y := float64(c.X), float64(c.Y)
		jac := [6]float64{x * gx, x * gy, y * gx, y * gy, gx, gy}
		r := residuals.At(idx, col)
		for row := 0; row < 6; row++ {
			b[row] += r * jac[row]
			for colJ := 0; colJ < 6; colJ++ {
				hessian[row*6+colJ] += jac[row] * jac[colJ]
			}
		}
	}

	sym := mat.NewSymDense(6, hessian[:])
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return MotionParams{}, false
	}
	rhs := mat.NewVecDense(6, b[:])
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, rhs); err != nil {
		return MotionParams{}, false
	}
	return MotionParams{x.AtVec(0), x.AtVec(1), x.AtVec(2), x.AtVec(3), x.AtVec(4), x.AtVec(5)}, true
}

// registeredGradientAt computes the centered (one-sided at the image
// border) finite-difference gradient, in the reference frame, of the
// image warped by m and sampled at (x, y). This is computed pointwise by
// re-sampling warped neighbors rather than differencing a cached
// registered-image buffer, so the same code serves both dense pixel sets
// (every coordinate) and sparse ones (isolated coordinates with no
// guarantee their neighbors are also selected) -- spec.md §4.2/§4.8/§4.9.
func registeredGradientAt(img *mat.Dense, m mat3, x, y, width, height int) (gx, gy float64) {
	sample := func(xx, yy int) float64 {
		sx, sy := m.transform(float64(xx), float64(yy))
		return LinearSample(sx, sy, img)
	}

	switch {
	case width == 1:
		gx = 0
	case x == 0:
		gx = sample(x+1, y) - sample(x, y)
	case x == width-1:
		gx = sample(x, y) - sample(x-1, y)
	default:
		gx = (sample(x+1, y) - sample(x-1, y)) / 2
	}

	switch {
	case height == 1:
		gy = 0
	case y == 0:
		gy = sample(x, y+1) - sample(x, y)
	case y == height-1:
		gy = sample(x, y) - sample(x, y-1)
	default:
		gy = (sample(x, y+1) - sample(x, y-1)) / 2
	}
	return gx, gy
}

func isDense(pixels PixelSet, width, height int) bool {
	_, ok := pixels.(DenseSet)
	return ok && pixels.Len() == width*height
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
