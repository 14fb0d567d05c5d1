// SPDX-License-Identifier: MIT

package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/gravcal/matrix"
)

// ErrBadDistribution is returned by Phid for NaN, infinite or negative totals.
var ErrBadDistribution = errors.New("stats: destination totals must be finite and >= 0")

// CBar returns the flow-weighted mean cost Σ t·c / Σ t of trip matrix t.
// Errors: matrix.ErrDegenerateInput for an all-zero t, shape errors otherwise.
func CBar(t, cost *matrix.Dense) (float64, error) {
	v, err := t.WeightedMean(cost)
	if err != nil {
		return 0, fmt.Errorf("stats: CBar: %w", err)
	}

	return v, nil
}

// DestinationTotals returns the column sums Dj of t.
func DestinationTotals(t *matrix.Dense) []float64 { return t.DestinationTotals() }

// Phid is the Sorensen–Dice overlap of two destination-total distributions:
//
//	Phid = 2·Σ min(obs[j], pred[j]) / (Σ obs + Σ pred)
//
// It is symmetric, 1 for identical inputs and 0 for disjoint ones.
//
// Errors:
//   - matrix.ErrDimensionMismatch when the lengths differ;
//   - ErrBadDistribution for NaN, Inf or negative entries;
//   - matrix.ErrDegenerateInput when both totals are zero.
func Phid(obs, pred []float64) (float64, error) {
	if len(obs) != len(pred) {
		return 0, fmt.Errorf("stats: Phid: %d vs %d zones: %w", len(obs), len(pred), matrix.ErrDimensionMismatch)
	}

	var overlap, sum float64
	for j := range obs {
		o, p := obs[j], pred[j]
		if bad(o) || bad(p) {
			return 0, fmt.Errorf("stats: Phid: zone %d: %w", j, ErrBadDistribution)
		}
		overlap += math.Min(o, p)
		sum += o + p
	}
	if sum == 0 {
		return 0, fmt.Errorf("stats: Phid: %w", matrix.ErrDegenerateInput)
	}

	return 2 * overlap / sum, nil
}

func bad(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) || v < 0 }
