package registration

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDenseSetColumnMajorOrder(t *testing.T) {
	d := DenseSet{Width: 3, Height: 2}
	if d.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", d.Len())
	}
	// Column-major: index 0 -> (0,0), index 1 -> (0,1), index 2 -> (1,0).
	want := []Coord{{0, 0}, {0, 1}, {1, 0}, {1, 1}, {2, 0}, {2, 1}}
	for i, w := range want {
		if got := d.Coord(i); got != w {
			t.Errorf("Coord(%d) = %+v, want %+v", i, got, w)
		}
	}
}

func TestSelectSparsePixelsThreshold(t *testing.T) {
	g := mat.NewDense(2, 2, []float64{0, 5, 100, 0})
	selected := SelectSparsePixels([]*mat.Dense{g}, 10)
	if len(selected.Coords) != 1 {
		t.Fatalf("expected 1 pixel above threshold, got %d", len(selected.Coords))
	}
	if selected.Coords[0] != (Coord{X: 0, Y: 1}) {
		t.Errorf("got %+v, want the pixel at (0,1) (value 100)", selected.Coords[0])
	}
}

func TestSelectSparsePixelsTakesMaxAcrossImages(t *testing.T) {
	a := mat.NewDense(1, 1, []float64{1})
	b := mat.NewDense(1, 1, []float64{50})
	selected := SelectSparsePixels([]*mat.Dense{a, b}, 10)
	if len(selected.Coords) != 1 {
		t.Fatalf("pixel exceeding threshold in any image should be selected, got %d coords", len(selected.Coords))
	}
}

func TestChooseModeSwitchesOnRatio(t *testing.T) {
	sparse := SparseSet{Coords: make([]Coord, 10)}
	dense, ratio := ChooseMode(sparse, 10, 10, 0.5)
	almostEqual(t, ratio, 0.1, 1e-12, "ratio")
	if dense {
		t.Error("10% selected with a 50% threshold should choose sparse mode")
	}

	sparse = SparseSet{Coords: make([]Coord, 90)}
	dense, ratio = ChooseMode(sparse, 10, 10, 0.5)
	almostEqual(t, ratio, 0.9, 1e-12, "ratio")
	if !dense {
		t.Error("90% selected with a 50% threshold should choose dense mode")
	}
}
