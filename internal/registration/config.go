package registration

import (
	"context"

	"github.com/cwbudde/lowrr-go/internal/pixel"
)

// Config holds the parameters of spec.md §3 Configuration. Zero value is
// not valid; use DefaultConfig and override fields, then call Validate.
type Config struct {
	// Lambda weights the L1 sparse term; normalized internally by
	// 1/sqrt(N_pixels).
	Lambda float64
	// Rho is the augmented-Lagrangian penalty.
	Rho float64
	// MaxIterations caps ADMM iterations per level.
	MaxIterations int
	// Threshold is the relative change in the low-rank estimate below
	// which a level halts.
	Threshold float64
	// Levels is the pyramid depth.
	Levels int
	// SparseRatioThreshold selects the sparse solver when the fraction
	// of selected pixels at a level falls below it.
	SparseRatioThreshold float64
	// DoImageCorrection enables the L1 sparse-error update; when false,
	// errors are pinned to zero.
	DoImageCorrection bool
	// ImageMax is the maximum pixel value used to scale to [0,1].
	ImageMax float64
	// SparseThreshold is the per-level gradient-magnitude threshold
	// for the sparse selector (spec.md §4.7). Typically
	// pixel.Kind.DefaultSparseThreshold().
	SparseThreshold float64
	// Crop restricts all work to this window when non-nil.
	Crop *Rect
	// Equalize, when non-nil, rescales every image to this target mean
	// intensity in [0,1] before registration.
	Equalize *float64
	// Verbosity is kept as a plain Config field rather than a package
	// global (spec.md §9). The core does not read it: its log/slog output
	// is filtered only by the level of the process-wide default logger.
	Verbosity int
	// Trace, when non-nil, receives structured diagnostic events as the
	// driver runs (spec.md §8 S6's "exposed trace hook").
	Trace func(TraceEvent)
	// Cancel, when non-nil, is polled at the top of each ADMM iteration
	// (spec.md §5). A cancelled context aborts the run with
	// CancelledError.
	Cancel context.Context
	// GaussNewtonBorderFraction is the fraction of the minimum image
	// dimension excluded from the Gauss-Newton Hessian/gradient sum at
	// each border (spec.md §9 open question); hard-coded at 0.04 by the
	// source, exposed here as a tunable.
	GaussNewtonBorderFraction float64
}

// DefaultConfig returns the documented defaults of spec.md §3, with
// ImageMax and SparseThreshold resolved for kind.
func DefaultConfig(kind pixel.Kind) Config {
	return Config{
		Lambda:                    1.5,
		Rho:                       0.1,
		MaxIterations:             40,
		Threshold:                 1e-3,
		Levels:                    4,
		SparseRatioThreshold:      0.5,
		DoImageCorrection:         true,
		ImageMax:                  kind.DefaultImageMax(),
		SparseThreshold:           kind.DefaultSparseThreshold(),
		GaussNewtonBorderFraction: 0.04,
	}
}

// Validate performs the BadConfig/BadCropBounds checks of spec.md §7
// before any heavy work is attempted. width/height are the dimensions of
// the (uncropped) input images; pass 0,0 to skip the crop-bounds check.
func (c Config) Validate(width, height int) error {
	if c.Levels <= 0 {
		return &BadConfigError{Field: "levels", Value: c.Levels}
	}
	if c.MaxIterations <= 0 {
		return &BadConfigError{Field: "max_iterations", Value: c.MaxIterations}
	}
	if c.Rho <= 0 {
		return &BadConfigError{Field: "rho", Value: c.Rho}
	}
	if c.Threshold <= 0 {
		return &BadConfigError{Field: "threshold", Value: c.Threshold}
	}
	if c.SparseRatioThreshold < 0 || c.SparseRatioThreshold > 1 {
		return &BadConfigError{Field: "sparse_ratio_threshold", Value: c.SparseRatioThreshold}
	}
	if c.ImageMax <= 0 {
		return &BadConfigError{Field: "image_max", Value: c.ImageMax}
	}
	if c.Equalize != nil && (*c.Equalize < 0 || *c.Equalize > 1) {
		return &BadConfigError{Field: "equalize", Value: *c.Equalize}
	}
	if c.Crop != nil {
		r := *c.Crop
		if r.X1 >= r.X2 || r.Y1 >= r.Y2 {
			return &BadCropBoundsError{Rect: r, Width: width, Height: height}
		}
		if width > 0 && height > 0 {
			if r.X1 < 0 || r.Y1 < 0 || r.X2 > width || r.Y2 > height {
				return &BadCropBoundsError{Rect: r, Width: width, Height: height}
			}
		}
	}
	return nil
}
