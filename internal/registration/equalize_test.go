package registration

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestEqualizeRescalesToTargetMean(t *testing.T) {
	imgs := []*mat.Dense{
		mat.NewDense(2, 2, []float64{20, 20, 20, 40}), // mean 25, imageMax 100 -> 0.25
	}
	Equalize(imgs, 100, 0.5)
	h, w := imgs[0].Dims()
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += imgs[0].At(y, x)
		}
	}
	mean := sum / float64(h*w) / 100
	almostEqual(t, mean, 0.5, 1e-9, "rescaled mean")
}

func TestEqualizeSaturates(t *testing.T) {
	imgs := []*mat.Dense{mat.NewDense(1, 1, []float64{90})}
	Equalize(imgs, 100, 2.0) // scale factor would overflow 100
	if imgs[0].At(0, 0) > 100 {
		t.Errorf("equalized pixel should saturate at imageMax, got %v", imgs[0].At(0, 0))
	}
}

func TestEqualizeSkipsZeroMeanImage(t *testing.T) {
	imgs := []*mat.Dense{mat.NewDense(2, 2, nil)}
	Equalize(imgs, 100, 0.5)
	if imgs[0].At(0, 0) != 0 {
		t.Error("an all-zero image has no mean to rescale from and should stay zero")
	}
}
