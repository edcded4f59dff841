package registration

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCropImageExtractsWindow(t *testing.T) {
	m := mat.NewDense(4, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	})
	out, err := CropImage(Rect{X1: 1, Y1: 1, X2: 3, Y2: 3}, m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h, w := out.Dims()
	if h != 2 || w != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", w, h)
	}
	want := []float64{6, 7, 10, 11}
	got := []float64{out.At(0, 0), out.At(0, 1), out.At(1, 0), out.At(1, 1)}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCropImageRejectsOutOfBounds(t *testing.T) {
	m := mat.NewDense(4, 4, nil)
	_, err := CropImage(Rect{X1: -1, Y1: 0, X2: 2, Y2: 2}, m)
	if !errors.Is(err, ErrBadCropBounds) {
		t.Fatalf("expected BadCropBoundsError, got %v", err)
	}
}

func TestCropImageRejectsInverted(t *testing.T) {
	m := mat.NewDense(4, 4, nil)
	_, err := CropImage(Rect{X1: 3, Y1: 0, X2: 1, Y2: 2}, m)
	if !errors.Is(err, ErrBadCropBounds) {
		t.Fatalf("expected BadCropBoundsError, got %v", err)
	}
}
