// SPDX-License-Identifier: MIT

// Package gravcal calibrates multi-mode doubly-constrained gravity models.
//
// For every transport mode (road, bus, rail, ...) an observed trip matrix
// TObs and a travel-cost matrix in minutes are given. The calibration finds
// the deterrence parameter β and the balancing factors A, B so that
//
//	T[i][j] = A[i]·Oi[i]·B[j]·Dj[j]·exp(-β·c[i][j])
//
// reproduces the observed origin and destination totals and the observed
// flow-weighted mean trip cost.
//
// Packages:
//
//	matrix     dense float32 matrices, reductions, validators
//	model      modes, datasets, results
//	balance    IPF balancing solver and destination capacity constraints
//	calibrate  β root search, parallel per-mode runner
//	stats      CBar, destination totals, Sorensen-Dice index, reports
//	matrixio   binary matrix files (plain and snappy)
//	table      CSV tables and zone geocoding
//	report     XML and YAML statistics documents
//	metrics    Prometheus gauges for a run
//	config     viper/pflag run configuration
//	logging    zap-backed logr loggers
//	pipeline   load → calibrate → write, used by cmd/gravcal
package gravcal
