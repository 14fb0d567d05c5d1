// SPDX-License-Identifier: MIT

// Package pipeline is the batch driver behind cmd/gravcal. It turns a
// config.RunConfig into files:
//
//	<OutputDir>/files.txt            inputs manifest
//	<OutputDir>/TPred_<k>.bin        predicted trips, one per mode (k from 1)
//	<OutputDir>/StatisticsData.xml   report (or .yaml)
//	<OutputDir>/Dj<Mode>Obs.csv      geocoded destination totals (optional)
//	<OutputDir>/Dj<Mode>Pred.csv
//	<OutputDir>/<WriteTo>_<mode>     attraction write-back (constraints only)
//	<OutputDir>/<metrics textfile>   Prometheus text format (optional)
//
// A mode that fails does not stop the others; Run reports it through
// ErrModesFailed after everything else is written.
package pipeline
