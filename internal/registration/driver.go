package registration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Run implements the multi-resolution sweep of spec.md §4.10: it builds a
// Gaussian-mean pyramid per image, then walks the levels coarse to fine,
// running the dense or sparse ADMM loop at each level and propagating the
// recovered motion (translation doubled) down to the next finer level. The
// returned motions are indexed exactly as images, in the frame of the
// original (uncropped) images when Config.Crop is set.
func Run(cfg Config, images []*mat.Dense) ([]MotionParams, error) {
	if len(images) == 0 {
		return nil, &InvalidInputError{Msg: "empty image stack"}
	}
	height, width := images[0].Dims()
	for i, img := range images[1:] {
		h, w := img.Dims()
		if h != height || w != width {
			return nil, &InvalidInputError{Msg: fmt.Sprintf("image %d has dimensions %dx%d, want %dx%d", i+1, w, h, width, height)}
		}
	}
	if err := cfg.Validate(width, height); err != nil {
		return nil, err
	}

	working := images
	if cfg.Crop != nil {
		working = make([]*mat.Dense, len(images))
		for i, img := range images {
			cropped, err := CropImage(*cfg.Crop, img)
			if err != nil {
				return nil, err
			}
			working[i] = cropped
		}
	}

	if cfg.Equalize != nil {
		Equalize(working, cfg.ImageMax, *cfg.Equalize)
	}

	perImagePyramids := make([][]*mat.Dense, len(working))
	for i, img := range working {
		perImagePyramids[i] = BuildPyramid(img, cfg.Levels)
	}
	perLevel := TransposePyramids(perImagePyramids)

	motion := make([]MotionParams, len(working))
	for i := range motion {
		motion[i] = Identity()
	}

	for level := cfg.Levels - 1; level >= 0; level-- {
		levelImages := perLevel[level]
		lh, lw := levelImages[0].Dims()

		gradNorms := make([]*mat.Dense, len(levelImages))
		for i, img := range levelImages {
			gradNorms[i] = SquaredNorm(img)
		}
		selected := SelectSparsePixels(gradNorms, cfg.SparseThreshold)
		dense, ratio := ChooseMode(selected, lw, lh, cfg.SparseRatioThreshold)

		var pixels PixelSet
		if dense {
			pixels = DenseSet{Width: lw, Height: lh}
		} else {
			pixels = selected
		}

		emit(cfg.Trace, TraceEvent{Level: level, Kind: "level_select", Sparse: !dense, Ratio: ratio})

		step := StepConfig{
			DoImageCorrection: cfg.DoImageCorrection,
			Lambda:            cfg.Lambda,
			Rho:               cfg.Rho,
			MaxIterations:     cfg.MaxIterations,
			Threshold:         cfg.Threshold,
			BorderFraction:    cfg.GaussNewtonBorderFraction,
			ImageMax:          cfg.ImageMax,
			Level:             level,
			Trace:             cfg.Trace,
			Cancel:            cfg.Cancel,
		}

		result, err := RunADMM(pixels, lw, lh, levelImages, step, motion)
		if err != nil {
			return nil, err
		}
		motion = result

		if level > 0 {
			for i := range motion {
				motion[i].DoubleTranslation()
			}
		}
	}

	if cfg.Crop != nil {
		recovered := make([]MotionParams, len(motion))
		for i, m := range motion {
			recovered[i] = RecoverOriginalMotion(*cfg.Crop, m)
		}
		motion = recovered
	}

	return motion, nil
}
