// SPDX-License-Identifier: MIT

// Package table loads and writes the CSV tables around a model run: the
// zone code lookup, the population table and the geocoded per-zone outputs.
package table
