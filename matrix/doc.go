// SPDX-License-Identifier: MIT

// Package matrix provides the dense zone-by-zone container used by the
// gravity-model calibration.
//
// What & Why:
//
//	Trip matrices (flows between origin and destination zones) and cost
//	matrices (travel time in minutes) are square N×N arrays of non-negative
//	values. Dense stores them row-major as float32, which keeps a national
//	zone system (~7,000² cells) within a few hundred megabytes, and exposes
//	the reductions the model needs:
//
//	  - Sum, RowSum, ColSum
//	  - RowSums            (origin totals, Oi)
//	  - DestinationTotals  (destination totals, Dj)
//	  - WeightedMean       (flow-weighted mean cost, CBar)
//
// Numeric policy:
//
//	Cells are validated on ingestion (finite and >= 0). Reductions
//	accumulate in float64 so results differ from a float32 reference only
//	by ordinary rounding.
//
// Errors:
//
//	All failures are sentinels (ErrOutOfRange, ErrDimensionMismatch,
//	ErrDegenerateInput, ...) wrapped with call-site context; match them
//	with errors.Is.
package matrix
