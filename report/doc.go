// SPDX-License-Identifier: MIT

// Package report serialises a stats.Report as XML (the StatisticsData
// document consumed by downstream tools) or YAML.
package report
