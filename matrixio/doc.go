// SPDX-License-Identifier: MIT

// Package matrixio stores and loads dense float32 matrices.
//
// Layout (little-endian):
//
//	int32 rows | int32 cols | rows·cols float32, row-major
//
// Files named *.sz hold the same bytes in snappy framed encoding. Vectors
// (capacities, attraction) use the same layout with one row. A stored then
// loaded matrix is bit-identical.
package matrixio
