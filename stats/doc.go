// SPDX-License-Identifier: MIT

// Package stats computes the goodness-of-fit figures of a calibration run:
// observed and predicted mean trip cost (CBar), destination totals (Dj) and
// the Sorensen–Dice index Phid between observed and predicted Dj.
package stats
