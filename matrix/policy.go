// SPDX-License-Identifier: MIT

// Package matrix: numeric policy defaults (single source of truth).
//
// Notes:
//   - Cells are float32 to keep N×N national-scale matrices within memory;
//     reductions accumulate in float64 and return float64 so the only rounding
//     step is the cell storage itself.
//   - The finite/non-negative guard is on by default. Codecs that must accept
//     arbitrary payloads (e.g. +Inf "unconstrained" capacities) disable it
//     explicitly with NewDenseUnchecked.
package matrix

import "math"

const (
	// DefaultValidateCells toggles strict finite, non-negative validation in Set
	// and NewDenseFrom.
	DefaultValidateCells = true
)

// checkCell applies the numeric policy to a single value.
// Returns nil, ErrNaNInf or ErrNegative.
func checkCell(v float32) error {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ErrNaNInf
	}
	if v < 0 {
		return ErrNegative
	}

	return nil
}
