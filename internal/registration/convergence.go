package registration

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// residualTracker checks the ADMM stopping criterion of spec.md §4.8 step
// 7: residual = ||A - A_prev|| / max(eps, ||A_prev||); stop when it falls
// below threshold or the iteration cap is reached. Shaped after the
// teacher's fit.ConvergenceTracker (same "track history, decide stop"
// responsibility split from the loop body), simplified to the single
// relative-residual rule the spec calls for instead of a
// patience/relative-improvement window.
type residualTracker struct {
	threshold     float64
	maxIterations int
	history       []float64
}

func newResidualTracker(threshold float64, maxIterations int) *residualTracker {
	return &residualTracker{threshold: threshold, maxIterations: maxIterations}
}

// update records the residual for iteration nbIter (0-based) and reports
// whether the loop should stop.
func (t *residualTracker) update(nbIter int, a, aPrev *mat.Dense) (residual float64, stop bool) {
	residual = frobeniusNorm(diff(a, aPrev)) / math.Max(1e-12, frobeniusNorm(aPrev))
	t.history = append(t.history, residual)
	slog.Debug("admm residual", "iteration", nbIter, "residual", residual)
	if nbIter+1 >= t.maxIterations {
		slog.Info("reached max iterations without meeting threshold", "iterations", nbIter+1, "residual", residual)
		return residual, true
	}
	if residual < t.threshold {
		return residual, true
	}
	return residual, false
}

// History returns a copy of the recorded residuals.
func (t *residualTracker) History() []float64 {
	return append([]float64(nil), t.history...)
}

func diff(a, b *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.Sub(a, b)
	return &out
}

// frobeniusNorm is the sqrt of the sum of squared entries -- the L2 norm
// of the vectorized matrix (spec.md §4.8 step 7), matching the source's
// hand-written norm()/norm_sqr() rather than gonum's mat.Norm (whose
// norm=2 is the spectral norm, a different quantity).
func frobeniusNorm(m *mat.Dense) float64 {
	r, c := m.Dims()
	var sumSq float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			sumSq += v * v
		}
	}
	return math.Sqrt(sumSq)
}
