// SPDX-License-Identifier: MIT

package balance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrSingular marks a zero balancing denominator for a zone with positive
	// demand (an unreachable origin or destination). Advisory: the factor is
	// set to zero and balancing continues.
	ErrSingular = errors.New("balance: singular row or column")

	// ErrNotConverged marks an iteration cap reached before the tolerance.
	// Advisory: the best current estimate is still returned.
	ErrNotConverged = errors.New("balance: convergence not reached")

	// ErrInfeasibleConstraints is returned when destination capacities cannot
	// absorb the total origin demand.
	ErrInfeasibleConstraints = errors.New("balance: capacity constraints are infeasible")

	// ErrTotalsMismatch is returned when Σ Oi and Σ Dj disagree beyond rounding.
	ErrTotalsMismatch = errors.New("balance: origin and destination totals differ")

	// ErrBadBeta is returned for a non-finite or negative deterrence parameter.
	ErrBadBeta = errors.New("balance: beta must be finite and >= 0")

	// ErrBadVector is returned for NaN/Inf/negative entries in Oi, Dj or capacities.
	ErrBadVector = errors.New("balance: vector entries must be finite and >= 0")
)

// Axis names the side of the matrix a SingularError refers to.
type Axis int

const (
	// Origin refers to rows (A factors).
	Origin Axis = iota
	// Destination refers to columns (B factors).
	Destination
)

func (a Axis) String() string {
	if a == Origin {
		return "origin"
	}

	return "destination"
}

// SingularError lists the zones whose balancing denominator was zero.
// errors.Is(err, ErrSingular) is true.
type SingularError struct {
	Axis  Axis
	Zones []int
}

func (e *SingularError) Error() string {
	const maxListed = 10
	var b strings.Builder
	for k, z := range e.Zones {
		if k == maxListed {
			b.WriteString(",...")
			break
		}
		if k > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(z))
	}

	return fmt.Sprintf("balance: %d singular %s zone(s) [%s]", len(e.Zones), e.Axis, b.String())
}

// Is reports ErrSingular as the sentinel of this error.
func (e *SingularError) Is(target error) bool { return target == ErrSingular }

// ConvergenceError records an iteration cap hit by a solver stage.
// errors.Is(err, ErrNotConverged) is true.
type ConvergenceError struct {
	Stage      string  // "balance" or "beta-search"
	Iterations int     // iterations performed
	Residual   float64 // last convergence measure
	Tolerance  float64 // configured tolerance
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: convergence not reached after %d iterations (residual %g, tolerance %g)",
		e.Stage, e.Iterations, e.Residual, e.Tolerance)
}

// Is reports ErrNotConverged as the sentinel of this error.
func (e *ConvergenceError) Is(target error) bool { return target == ErrNotConverged }
