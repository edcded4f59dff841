package registration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/lowrr-go/internal/pixel"
)

func syntheticImage(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Set(y, x, float64(x*x)+0.5*float64(y*y)+float64(x*y))
		}
	}
	return m
}

// Two identical images carry no real misalignment, so Run must report
// motion parameters close to the identity warp for both.
func TestRunIdenticalImagesStayNearIdentity(t *testing.T) {
	img := syntheticImage(16)
	images := []*mat.Dense{img, img}

	cfg := DefaultConfig(pixel.Gray8)
	cfg.Levels = 2
	cfg.MaxIterations = 5
	cfg.Threshold = 1e-3

	motions, err := Run(cfg, images)
	require.NoError(t, err)
	require.Len(t, motions, 2)

	for i, m := range motions {
		require.InDelta(t, 0, m[4], 2.0, "image %d: x translation should stay near zero", i)
		require.InDelta(t, 0, m[5], 2.0, "image %d: y translation should stay near zero", i)
	}
}

func TestRunRejectsMismatchedDimensions(t *testing.T) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewDense(8, 9, nil)
	cfg := DefaultConfig(pixel.Gray8)
	_, err := Run(cfg, []*mat.Dense{a, b})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunRejectsEmptyStack(t *testing.T) {
	cfg := DefaultConfig(pixel.Gray8)
	_, err := Run(cfg, nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunPropagatesBadConfig(t *testing.T) {
	cfg := DefaultConfig(pixel.Gray8)
	cfg.Levels = 0
	img := syntheticImage(8)
	_, err := Run(cfg, []*mat.Dense{img, img})
	require.ErrorIs(t, err, ErrBadConfig)
}

func TestRunHonorsCancellation(t *testing.T) {
	img := syntheticImage(16)
	images := []*mat.Dense{img, img}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig(pixel.Gray8)
	cfg.Levels = 2
	cfg.MaxIterations = 100
	cfg.Cancel = ctx

	_, err := Run(cfg, images)
	require.ErrorIs(t, err, ErrCancelled)
}
