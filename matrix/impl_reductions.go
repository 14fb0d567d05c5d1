// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Provide the axis reductions a spatial-interaction model needs:
//     total, origin totals (row sums, Oi), destination totals (column sums, Dj)
//     and the flow-weighted mean of a cost matrix (CBar).
//
// Exposed API:
//   - (*Dense).Sum()                 -> Σ_ij M
//   - (*Dense).RowSum(i)             -> Σ_j M[i,j]
//   - (*Dense).ColSum(j)             -> Σ_i M[i,j]
//   - (*Dense).RowSums()             -> Oi
//   - (*Dense).DestinationTotals()   -> Dj
//   - (*Dense).WeightedMean(cost)    -> Σ M·cost / Σ M
//
// Determinism & Performance:
//   - Fixed i→j traversal; column sums are accumulated row by row so every
//     pass over the buffer is sequential.
//   - All accumulators are float64; cells are float32.

package matrix

// Operation name constants for unified error wrapping.
const (
	opRowSum       = "RowSum"
	opColSum       = "ColSum"
	opWeightedMean = "WeightedMean"
)

// Sum returns the total of all cells. Never negative under the cell policy.
// Complexity: O(r*c).
func (m *Dense) Sum() float64 {
	var s float64
	for _, v := range m.data {
		s += float64(v)
	}

	return s
}

// RowSum returns Σ_j M[i,j] (the origin total of zone i).
// Errors: ErrOutOfRange.
func (m *Dense) RowSum(i int) (float64, error) {
	if i < 0 || i >= m.r {
		return 0, denseErrorf(opRowSum, i, 0, ErrOutOfRange)
	}
	var s float64
	base := i * m.c
	for j := 0; j < m.c; j++ {
		s += float64(m.data[base+j])
	}

	return s, nil
}

// ColSum returns Σ_i M[i,j] (the destination total of zone j).
// Errors: ErrOutOfRange.
func (m *Dense) ColSum(j int) (float64, error) {
	if j < 0 || j >= m.c {
		return 0, denseErrorf(opColSum, 0, j, ErrOutOfRange)
	}
	var s float64
	for i := 0; i < m.r; i++ {
		s += float64(m.data[i*m.c+j])
	}

	return s, nil
}

// RowSums returns the origin-total vector Oi[i] = Σ_j M[i,j].
// Complexity: O(r*c) time, O(r) space.
func (m *Dense) RowSums() []float64 {
	out := make([]float64, m.r)
	var i, j, base int
	var s float64
	for i = 0; i < m.r; i++ {
		s = 0
		base = i * m.c
		for j = 0; j < m.c; j++ {
			s += float64(m.data[base+j])
		}
		out[i] = s
	}

	return out
}

// DestinationTotals returns Dj[j] = Σ_i M[i,j] for every destination zone.
// MAIN DESCRIPTION:
//   - Column reduction used both as a calibration input (target destination
//     demand) and as a statistics / geocoding output.
//
// Implementation:
//   - Stage 1: allocate out (len c).
//   - Stage 2: row-major sweep accumulating into out[j] (sequential memory).
//
// Complexity:
//   - Time O(r*c), Space O(c).
func (m *Dense) DestinationTotals() []float64 {
	out := make([]float64, m.c)
	var i, j, base int
	for i = 0; i < m.r; i++ {
		base = i * m.c
		for j = 0; j < m.c; j++ {
			out[j] += float64(m.data[base+j])
		}
	}

	return out
}

// ComputeDestinationTotals is an alias for DestinationTotals, named after the
// collaborator contract (geocoding consumes exactly this vector).
func (m *Dense) ComputeDestinationTotals() []float64 { return m.DestinationTotals() }

// WeightedMean returns Σ_ij M[i,j]·cost[i,j] / Σ_ij M[i,j].
// MAIN DESCRIPTION:
//   - Flow-weighted mean cost ("CBar") of a trip matrix M over a cost matrix.
//
// Implementation:
//   - Stage 1: validate cost (non-nil, same shape).
//   - Stage 2: single flat pass accumulating numerator and denominator.
//   - Stage 3: reject a zero denominator.
//
// Behavior highlights:
//   - Invariant to uniform positive scaling of M (numerator and denominator
//     scale together).
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrDegenerateInput (Σ M == 0).
//
// Complexity:
//   - Time O(r*c), Space O(1).
func (m *Dense) WeightedMean(cost Matrix) (float64, error) {
	if err := ValidateBinarySameShape(m, cost); err != nil {
		return 0, matrixErrorf(opWeightedMean, err)
	}

	var num, den float64
	if cd, ok := cost.(*Dense); ok {
		// Fast path: both buffers are row-major with identical layout.
		var w float64
		for off, v := range m.data {
			w = float64(v)
			num += w * float64(cd.data[off])
			den += w
		}
	} else {
		var i, j int
		var w float64
		var cv float32
		var err error
		for i = 0; i < m.r; i++ {
			for j = 0; j < m.c; j++ {
				if cv, err = cost.At(i, j); err != nil {
					return 0, matrixErrorf(opWeightedMean, err)
				}
				w = float64(m.data[i*m.c+j])
				num += w * float64(cv)
				den += w
			}
		}
	}

	if den == 0 {
		return 0, matrixErrorf(opWeightedMean, ErrDegenerateInput)
	}

	return num / den, nil
}
