// SPDX-License-Identifier: MIT

// Package metrics exposes calibration results as Prometheus gauges so batch
// runs can be scraped or collected through a node-exporter textfile.
package metrics
