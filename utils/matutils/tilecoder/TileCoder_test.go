package tilecoder

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func newTestCoder(bins [][]int, includeBias bool) *TileCoder {
	return New(
		mat.NewVecDense(2, []float64{0, 0}),
		mat.NewVecDense(2, []float64{1, 1}),
		bins,
		12,
		includeBias,
	)
}

func TestVecLength(t *testing.T) {
	tests := []struct {
		bins        [][]int
		includeBias bool
		want        int
	}{
		{[][]int{{5, 5}}, false, 25},
		{[][]int{{5, 5}}, true, 26},
		{[][]int{{5, 5}, {4, 4}, {3, 3}}, true, 51},
	}

	for _, test := range tests {
		tc := newTestCoder(test.bins, test.includeBias)
		if got := tc.VecLength(); got != test.want {
			t.Errorf("incorrect vector length \n\twant(%v)\n\thave(%v)",
				test.want, got)
		}
	}
}

func TestEncodeOneHotPerTiling(t *testing.T) {
	bins := [][]int{{5, 5}, {4, 4}, {3, 3}}
	tc := newTestCoder(bins, true)

	v := mat.NewVecDense(2, []float64{0.3, 0.7})
	encoded := tc.Encode(v)

	if encoded.Len() != tc.VecLength() {
		t.Fatalf("incorrect encoding length \n\twant(%v)\n\thave(%v)",
			tc.VecLength(), encoded.Len())
	}
	if encoded.AtVec(0) != 1.0 {
		t.Error("bias unit not set")
	}

	nonZero := 0
	for i := 0; i < encoded.Len(); i++ {
		switch encoded.AtVec(i) {
		case 0.0:
		case 1.0:
			nonZero++
		default:
			t.Fatalf("encoding is not binary at index %d: %v", i,
				encoded.AtVec(i))
		}
	}
	if nonZero != len(bins)+1 {
		t.Errorf("incorrect number of non-zero features "+
			"\n\twant(%v)\n\thave(%v)", len(bins)+1, nonZero)
	}
}

func TestEncodeIndicesMatchesEncode(t *testing.T) {
	bins := [][]int{{6, 6}, {4, 4}}
	tc := newTestCoder(bins, true)

	points := [][]float64{
		{0.0, 0.0},
		{0.5, 0.5},
		{1.0, 1.0},
		{0.2, 0.9},
	}
	for _, p := range points {
		v := mat.NewVecDense(2, p)
		encoded := tc.Encode(v)
		indices := tc.EncodeIndices(v)

		if len(indices) != len(bins)+1 {
			t.Fatalf("incorrect number of indices \n\twant(%v)\n\thave(%v)",
				len(bins)+1, len(indices))
		}
		for _, idx := range indices {
			if encoded.AtVec(int(idx)) != 1.0 {
				t.Errorf("index %v does not address a non-zero feature "+
					"for point %v", idx, p)
			}
		}
	}
}

func TestOutOfBoundsValuesClipped(t *testing.T) {
	tc := newTestCoder([][]int{{5, 5}}, false)

	// Values outside the tiled range fall into the boundary tiles
	below := tc.EncodeIndices(mat.NewVecDense(2, []float64{-10, -10}))
	above := tc.EncodeIndices(mat.NewVecDense(2, []float64{10, 10}))

	for _, idx := range below {
		if idx < 0 || int(idx) >= tc.VecLength() {
			t.Errorf("index %v out of range for underflowing input", idx)
		}
	}
	for _, idx := range above {
		if idx < 0 || int(idx) >= tc.VecLength() {
			t.Errorf("index %v out of range for overflowing input", idx)
		}
	}
}

func BenchmarkTileCoder(b *testing.B) {
	tc := New(
		mat.NewVecDense(8, []float64{0, 0, 0, 0, 0, 0, 0, 0}),
		mat.NewVecDense(8, []float64{1, 1, 1, 1, 1, 1, 1, 1}),
		[][]int{{8, 8, 8, 8, 8, 8, 8, 8}},
		12,
		true,
	)

	y := mat.NewVecDense(8, []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5})

	for i := 0; i < b.N; i++ {
		tc.Encode(y)
	}
}
