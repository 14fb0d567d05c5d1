// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic fixtures for the dense container and its reductions.

package matrix_test

import (
	"testing"

	"github.com/katalvlaran/gravcal/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type from type assertions,
// forcing the generic At-based fallback paths in code under test.
type hide struct{ matrix.Matrix }

// NewFilledDense builds an r×c *Dense from row-major values or fails the test.
func NewFilledDense(t *testing.T, r, c int, vals []float32) *matrix.Dense {
	t.Helper()
	cp := append([]float32(nil), vals...) // NewDenseFrom adopts the buffer
	m, err := matrix.NewDenseFrom(r, c, cp)
	require.NoError(t, err)

	return m
}

// MustAt reads (i,j) or fails the test.
func MustAt(t *testing.T, m matrix.Matrix, i, j int) float32 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}
