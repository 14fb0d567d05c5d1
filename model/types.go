// SPDX-License-Identifier: MIT

// Package model defines the per-mode inputs and outputs of a calibration run.
//
// A Mode bundles one transport mode's observed trip matrix (TObs) and cost
// matrix (Dis, minutes). A Dataset is the ordered list of modes for one run;
// every matrix in it shares the same zone count N and zone ordering.
// Result carries what calibration produces for a mode (Beta, TPred and the
// balancing factors); it is built once and never mutated afterwards.
package model

import (
	"github.com/katalvlaran/gravcal/balance"
	"github.com/katalvlaran/gravcal/matrix"
)

// Mode is one transport mode's observed data.
//
// Fields:
//   - Name       : report key (e.g. "road", "bus", "rail"); unique within a Dataset.
//   - TObs       : observed trips, N×N.
//   - Dis        : travel cost in minutes, N×N.
//   - Constraints: optional destination capacity set; nil = unconstrained.
type Mode struct {
	Name        string
	TObs        *matrix.Dense
	Dis         *matrix.Dense
	Constraints *balance.ConstraintSet
}

// Result is the calibrated output for one mode.
type Result struct {
	Mode string // Mode.Name

	Beta     float64       // calibrated deterrence parameter
	TPred    *matrix.Dense // predicted trips at Beta
	A        []float64     // per-origin balancing factors
	B        []float64     // per-destination balancing factors
	CBarObs  float64       // observed flow-weighted mean cost (minutes)
	CBarPred float64       // predicted flow-weighted mean cost (minutes)

	// Attraction is the effective destination target vector; it differs from
	// the observed Dj only when capacity constraints clamped some zones.
	Attraction []float64

	Iterations int  // outer (beta) iterations performed
	Converged  bool // |CBarPred-CBarObs| met the tolerance

	// Advisories holds non-fatal conditions (singular zones, iteration caps)
	// that should be surfaced in the report; nil when the fit is clean.
	Advisories []error
}

// Outcome pairs a mode name with either its Result or its fatal error.
// Exactly one of Result and Err is non-nil.
type Outcome struct {
	Mode   string
	Result *Result
	Err    error
}
