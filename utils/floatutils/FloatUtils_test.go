package floatutils

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	if got := Clip(5.0, -1.0, 1.0); got != 1.0 {
		t.Errorf("expected 1.0, got %v", got)
	}
	if got := Clip(-5.0, -1.0, 1.0); got != -1.0 {
		t.Errorf("expected -1.0, got %v", got)
	}
	if got := Clip(0.5, -1.0, 1.0); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestWrap(t *testing.T) {
	interval := r1.Interval{Min: -math.Pi, Max: math.Pi}

	if got := WrapInterval(math.Pi+0.5, interval); math.Abs(got-
		(-math.Pi+0.5)) > 1e-10 {
		t.Errorf("expected %v, got %v", -math.Pi+0.5, got)
	}
	if got := WrapInterval(-math.Pi-0.5, interval); math.Abs(got-
		(math.Pi-0.5)) > 1e-10 {
		t.Errorf("expected %v, got %v", math.Pi-0.5, got)
	}
	if got := WrapInterval(1.0, interval); got != 1.0 {
		t.Errorf("values inside the interval should be unchanged, got %v",
			got)
	}
}

func TestMaxSlice(t *testing.T) {
	max, indices := MaxSlice([]float64{1.0, 3.0, 3.0, 2.0})
	if max != 3.0 {
		t.Errorf("expected max 3.0, got %v", max)
	}
	if len(indices) != 2 || indices[0] != 1 || indices[1] != 2 {
		t.Errorf("expected indices [1 2], got %v", indices)
	}

	max, indices = MaxSlice([]float64{4.0, 3.0})
	if max != 4.0 || len(indices) != 1 || indices[0] != 0 {
		t.Errorf("expected max 4.0 at [0], got %v at %v", max, indices)
	}
}

func TestArgMax(t *testing.T) {
	if got := ArgMax([]float64{0.0, 2.0, 1.0}); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := ArgMax([]float64{5.0, 2.0, 5.0}); got != 0 {
		t.Errorf("ties should break to the first index, got %v", got)
	}
}
