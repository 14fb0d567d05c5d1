// SPDX-License-Identifier: MIT

// Package matrix: domain types shared by the dense container and its callers.
// This file intentionally contains ONLY the public Matrix interface; errors and
// numeric policy live in dedicated files (errors.go, policy.go).
package matrix

// Matrix represents a two-dimensional mutable array of float32 cells.
// Trip counts and travel costs are both stored through this surface.
//
// Complexity notes: all methods are expected O(1) except Clone (O(r*c)).
type Matrix interface {
	// Rows returns the number of rows (origin zones).
	Rows() int

	// Cols returns the number of columns (destination zones).
	Cols() int

	// At retrieves the element at position (i, j).
	// Returns ErrOutOfRange if i<0, i>=Rows(), j<0 or j>=Cols().
	At(i, j int) (float32, error)

	// Set assigns the value v at position (i, j).
	// Returns ErrOutOfRange if indices are invalid, or a numeric-policy error.
	Set(i, j int, v float32) error

	// Clone returns a deep copy of the matrix.
	// Complexity: O(rows*cols).
	Clone() Matrix
}
