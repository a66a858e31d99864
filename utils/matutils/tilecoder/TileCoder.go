// Package tilecoder implements tile coding of vectors
package tilecoder

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/utils/matutils"
)

// Controls tiling offsets. For each dimension, tilings are offset by
// randomly sampling from a uniform distribution with support
// [-tiling width/OffsetDiv, tiling width/OffsetDiv]
const OffsetDiv float64 = 1.5

// TileCoder implements functionality for tile coding a vector. Tile
// coding takes a low-dimensional vector and changes it into a large,
// sparse vector consisting of only 0's and 1's. Each 1 represents the
// coordinates of the original vector in some space of tilings. For
// example:
//
//	[0.5, 0.1] -> [0, 0, 0, 1, 0, 0, 1, 0]
//
// The number of nonzero elements in the tile-coded representation
// equals the number of tilings used to encode the vector. The number
// of total features in the tile-coded representation is the sum over
// tilings of the number of tiles per tiling. Tile coding requires
// that the space to be tiled be bounded.
//
// This implementation of tile coding uses dense tilings over the
// entire state space. That is, each dimension of state space is fully
// tiled, and hash-based tile coding is not used.
type TileCoder struct {
	numTilings  int
	minDims     mat.Vector
	offsets     []*mat.Dense
	bins        [][]int
	binLengths  [][]float64
	seed        uint64
	includeBias bool
}

// New creates and returns a new TileCoder. The minDims and maxDims
// arguments are the bounds on each dimension between which tilings
// will be placed. These arguments should have the same shape as
// vectors which will be tile coded.
//
// The bins argument determines both the number of tilings to use and
// the number of tiles per tiling. The number of elements in the outer
// slice determines the number of tilings. The sub-slices determine
// how many tiles are placed along each dimension for the respective
// tiling. For example, if bins := [][]int{{2, 2}, {4, 3}}, then the
// TileCoder uses two tilings: the first is a 2x2 tiling and the
// second uses 4 tiles along the first dimension and 3 tiles along the
// second. For any i, len(bins[i]) must equal minDims.Len() ==
// maxDims.Len().
//
// The includeBias parameter determines whether a bias unit is kept as
// the first unit of the tile-coded representation.
func New(minDims, maxDims mat.Vector, bins [][]int, seed uint64,
	includeBias bool) *TileCoder {
	if minDims.Len() != maxDims.Len() {
		panic(fmt.Sprintf("new: dimension bounds have different lengths: "+
			"\n\twant(%v) \n\thave(%v)", minDims.Len(), maxDims.Len()))
	}
	if len(bins) == 0 {
		panic("new: at least one tiling is required")
	}
	for i := range bins {
		if len(bins[i]) != minDims.Len() {
			panic(fmt.Sprintf("new: tiling %v should have one bin count "+
				"per dimension: \n\twant(%v) \n\thave(%v)", i,
				minDims.Len(), len(bins[i])))
		}
	}

	// Calculate the length of bins and the tiling offset bounds
	var bounds []r1.Interval
	numTilings := len(bins)
	binLengths := make([][]float64, numTilings)

	for j := 0; j < numTilings; j++ {
		binLengths[j] = make([]float64, minDims.Len())

		for i := 0; i < minDims.Len(); i++ {
			binLength := (maxDims.AtVec(i) - minDims.AtVec(i)) /
				float64(bins[j][i])
			bound := binLength / OffsetDiv // Bounds tiling offsets

			binLengths[j][i] = binLength
			bounds = append(bounds, r1.Interval{Min: -bound, Max: bound})
		}
	}

	// Uniformly sample tiling offsets
	source := rand.NewSource(seed)
	u := distmv.NewUniform(bounds, source)
	sampler := samplemv.IID{Dist: u}

	var offsets []*mat.Dense
	for i := 0; i < numTilings; i++ {
		samples := mat.NewDense(1, len(bounds), nil)
		sampler.Sample(samples)

		offsets = append(offsets, samples)
	}

	return &TileCoder{numTilings, minDims, offsets, bins, binLengths, seed,
		includeBias}
}

// featuresBeforeTiling returns how many features exist in the
// tile-coded representation before tiling number i
func (t *TileCoder) featuresBeforeTiling(i int) int {
	features := 0
	for j := 0; j < i; j++ {
		features += prod(t.bins[j])
	}
	return features
}

// EncodeBatch encodes a batch of vectors held in a Dense matrix. In
// this batch, each row should be a sequential feature, while each
// column should be a sequential sample in the batch. The returned
// matrix is of size k x c, where k is the number of features in the
// tile-coded representation and c is the number of samples in the
// batch.
func (t *TileCoder) EncodeBatch(b *mat.Dense) *mat.Dense {
	bias := 0
	if t.includeBias {
		bias = 1
	}

	rows, cols := b.Dims()
	tileCoded := mat.NewDense(t.VecLength(), cols, nil)

	ones := matutils.VecOnes(rows)

	// Vector that holds all the data that is manipulated
	data := mat.NewVecDense(rows, nil)

	for j := 0; j < t.numTilings; j++ {
		// indexOffset is the index into the tile-coded vector at
		// which the current tiling starts
		indexOffset := t.featuresBeforeTiling(j)
		index := mat.NewVecDense(rows, nil)

		// For each feature dimension, calculate which tile along that
		// dimension each sample falls in
		for i := len(t.bins[j]) - 1; i > -1; i-- {
			data.CloneFromVec(b.RowView(i))

			// Offset the tiling
			data.AddScaledVec(data, t.offsets[j].At(0, i), ones)

			// The tile along dimension i is the integer part of
			// (data - min) / binLength
			data.AddScaledVec(data, -t.minDims.AtVec(i), ones)
			matutils.VecFloor(data, t.binLengths[j][i])

			// If out-of-bounds, use the closest tile
			matutils.VecClip(data, 0.0, float64(t.bins[j][i]-1))

			// Accumulate the flat index into the tiling
			if i == len(t.bins[j])-1 {
				index.AddVec(index, data)
			} else {
				index.AddScaledVec(index, float64(t.bins[j][i+1]), data)
			}
		}

		for i := 0; i < index.Len(); i++ {
			row := indexOffset + int(index.AtVec(i)) + bias
			tileCoded.Set(row, i, 1.0)
		}
	}

	if t.includeBias {
		biasUnits := make([]float64, cols)
		for i := 0; i < cols; i++ {
			biasUnits[i] = 1.0
		}
		tileCoded.SetRow(0, biasUnits)
	}
	return tileCoded
}

// encodeWithTiling returns the index of the tile-coded feature vector
// which should be 1.0 when the input vector v is encoded with tiling
// number tiling
func (t *TileCoder) encodeWithTiling(v mat.Vector, tiling int) int {
	bias := 0
	if t.includeBias {
		bias = 1
	}

	indexOffset := t.featuresBeforeTiling(tiling)
	index := 0

	for i := len(t.bins[tiling]) - 1; i > -1; i-- {
		// Offset the tiling
		data := v.AtVec(i) + t.offsets[tiling].At(0, i)

		tile := math.Floor((data - t.minDims.AtVec(i)) /
			t.binLengths[tiling][i])

		// If out-of-bounds, use the closest tile
		tile = floatutils.Clip(tile, 0.0, float64(t.bins[tiling][i]-1))

		tileIndex := int(tile)
		if i == len(t.bins[tiling])-1 {
			index += tileIndex
		} else {
			index += tileIndex * t.bins[tiling][i+1]
		}
	}
	return indexOffset + index + bias
}

// EncodeIndices returns a slice of the non-zero indices in the
// tile-coded representation of v
func (t *TileCoder) EncodeIndices(v mat.Vector) []float64 {
	bias := 0
	if t.includeBias {
		bias = 1
	}

	indices := make([]float64, t.numTilings+bias)
	for i := 0; i < t.numTilings; i++ {
		indices[i] = float64(t.encodeWithTiling(v, i))
	}

	// The bias unit is always the first unit of the representation
	if t.includeBias {
		indices[len(indices)-1] = 0.0
	}
	return indices
}

// Encode encodes a single vector as a tile-coded vector
func (t *TileCoder) Encode(v mat.Vector) *mat.VecDense {
	tileCoded := mat.NewVecDense(t.VecLength(), nil)

	for _, index := range t.EncodeIndices(v) {
		tileCoded.SetVec(int(index), 1.0)
	}
	return tileCoded
}

// String implements the fmt.Stringer interface
func (t *TileCoder) String() string {
	return fmt.Sprintf("Tilings %d  |  Tiles: %v", t.numTilings, t.bins)
}

// VecLength returns the number of features in a tile-coded vector
func (t *TileCoder) VecLength() int {
	features := 0
	for i := 0; i < t.numTilings; i++ {
		features += prod(t.bins[i])
	}
	if t.includeBias {
		return features + 1
	}
	return features
}

// NumTilings returns the number of tilings the tile coder uses for
// encoding vectors
func (t *TileCoder) NumTilings() int {
	return t.numTilings
}

// IncludesBias returns whether the tile coder includes a bias unit in
// its encodings
func (t *TileCoder) IncludesBias() bool {
	return t.includeBias
}

// prod calculates the product of all integers in a []int
func prod(i []int) int {
	prod := 1
	for _, v := range i {
		prod *= v
	}
	return prod
}
