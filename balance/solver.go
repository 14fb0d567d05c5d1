// SPDX-License-Identifier: MIT

package balance

import (
	"fmt"
	"math"

	"github.com/katalvlaran/gravcal/matrix"
)

// Operation tags for wrapped errors.
const (
	opDeterrence = "Deterrence"
	opSolve      = "Solve"
)

// totalsRelTol is the relative gap tolerated between Σ Oi and Σ Dj; both come
// from the same float32 matrix, so only summation-order rounding is expected.
const totalsRelTol = 1e-4

// Result is the output of one balancing solve.
type Result struct {
	T          *matrix.Dense // predicted trips
	A          []float64     // per-origin factors
	B          []float64     // per-destination factors
	Attraction []float64     // effective destination targets D*
	Clamped    []int         // zones clamped to capacity (constrained solves only)
	Iterations int           // A/B iterations performed
	Converged  bool          // max relative change fell below tolerance
	Residual   float64       // max relative change of the last iteration

	// Advisories holds *SingularError and *ConvergenceError values; nil when clean.
	Advisories []error
}

// Deterrence materialises f[i][j] = exp(-β·(c[i][j] - min_j c[i][j])) as a
// new matrix.
// MAIN DESCRIPTION:
//   - Negative-exponential deterrence evaluated once per β so the A/B loop
//     does not call exp on every cell of every iteration.
//   - Each row is taken relative to its cheapest cell, so every row holds a 1
//     and float32 cannot underflow a whole row. The row constant exp(-β·min)
//     is absorbed by A[i]; T is the same as with the raw exponential.
//
// Errors:
//   - ErrBadBeta; matrix validation errors for a nil or non-square cost.
//
// Complexity:
//   - Time O(N²), Space O(N²).
func Deterrence(cost *matrix.Dense, beta float64) (*matrix.Dense, error) {
	if err := matrix.ValidateSquare(cost); err != nil {
		return nil, fmt.Errorf("%s: %w", opDeterrence, err)
	}
	if math.IsNaN(beta) || math.IsInf(beta, 0) || beta < 0 {
		return nil, fmt.Errorf("%s: beta=%g: %w", opDeterrence, beta, ErrBadBeta)
	}

	n := cost.Rows()
	src := cost.Raw()
	buf := make([]float32, len(src))
	var i, j, base int
	var lo float32
	for i = 0; i < n; i++ {
		base = i * n
		lo = src[base]
		for j = 1; j < n; j++ {
			lo = min(lo, src[base+j])
		}
		for j = 0; j < n; j++ {
			buf[base+j] = float32(math.Exp(-beta * (float64(src[base+j]) - float64(lo))))
		}
	}

	return matrix.NewDenseFrom(n, n, buf)
}

// Solve runs the doubly-constrained balancing for cost matrix cost and
// deterrence parameter beta. See SolveWithDeterrence for the algorithm.
func Solve(cost *matrix.Dense, beta float64, oi, dj []float64, opts ...Option) (*Result, error) {
	f, err := Deterrence(cost, beta)
	if err != nil {
		return nil, err
	}

	return SolveWithDeterrence(f, oi, dj, opts...)
}

// SolveWithDeterrence balances T[i][j] = A[i]·Oi[i]·B[j]·Dj[j]·f[i][j].
// MAIN DESCRIPTION:
//   - Iterative proportional fitting of the classical doubly-constrained
//     gravity model with a precomputed deterrence matrix f.
//
// Implementation:
//   - Stage 1: validate shapes and vectors; exclude unreachable zones and
//     compute targets D* (capacity clamp), alternating until stable.
//   - Stage 2: B = 1; A[i] = 1 / Σ_j B[j]·Dj[j]·f[i][j].
//   - Stage 3: repeat
//     B[j] = (D*[j]/Dj[j]) / Σ_i A[i]·Oi[i]·f[i][j]
//     A[i] = 1 / Σ_j B[j]·Dj[j]·f[i][j]
//     until max relative change of A and B < tolerance or the cap is hit.
//   - Stage 4: materialise T; write D* back into the constraint set if any.
//
// Behavior highlights:
//   - Σ_j T[i][j] = Oi[i] exactly after the final A update; Σ_i T[i][j] → D*[j].
//   - A zero denominator for a zone with positive demand yields a zero factor
//     and a *SingularError advisory; balancing continues.
//   - Reaching the iteration cap yields a *ConvergenceError advisory and the
//     current estimate.
//
// Errors (fatal):
//   - matrix validation errors, ErrBadVector, ErrTotalsMismatch,
//     matrix.ErrDegenerateInput (zero total), ErrInfeasibleConstraints.
//
// Complexity:
//   - Time O(iter·N²), Space O(N²) for T plus O(N) factors.
func SolveWithDeterrence(f *matrix.Dense, oi, dj []float64, opts ...Option) (*Result, error) {
	o := NewOptions(opts...)

	// Stage 1: validation.
	if err := matrix.ValidateSquare(f); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	n := f.Rows()
	if err := matrix.ValidateVecLen(oi, n); err != nil {
		return nil, fmt.Errorf("%s: Oi: %w", opSolve, err)
	}
	if err := matrix.ValidateVecLen(dj, n); err != nil {
		return nil, fmt.Errorf("%s: Dj: %w", opSolve, err)
	}
	sumO, err := checkVector("Oi", oi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	sumD, err := checkVector("Dj", dj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	if sumO == 0 {
		return nil, fmt.Errorf("%s: %w", opSolve, matrix.ErrDegenerateInput)
	}
	if math.Abs(sumO-sumD) > totalsRelTol*math.Max(sumO, sumD) {
		return nil, fmt.Errorf("%s: ΣOi=%g ΣDj=%g: %w", opSolve, sumO, sumD, ErrTotalsMismatch)
	}

	var capacity []float64
	if o.constraints != nil {
		if o.constraints.Len() != n {
			return nil, fmt.Errorf("%s: constraints length %d: %w", opSolve, o.constraints.Len(), matrix.ErrDimensionMismatch)
		}
		capacity = o.constraints.capacity
	}

	// Unreachable zones get zero factors; their mass is taken out of the
	// problem so the remaining totals still agree. Zones clamped to zero
	// capacity can strand further origins, so exclusion and clamping
	// alternate until neither changes (each pass zeroes at least one zone).
	s := newState(f.Raw(), oi, dj)
	placeable, _ := s.excludeUnreachable(nil)
	var target []float64
	var clamped []int
	for {
		if target, clamped, err = clampTargets(s.dj, capacity, placeable); err != nil {
			return nil, fmt.Errorf("%s: %w", opSolve, err)
		}
		left, changed := s.excludeUnreachable(target)
		if !changed {
			break
		}
		placeable = left
	}
	s.target = target

	// Stage 2: initial state (B = 1 for attracting zones, 0 otherwise).
	for j := range s.b {
		if s.dj[j] == 0 || target[j] == 0 {
			s.b[j] = 0
		}
	}
	s.updateA()

	// Stage 3: fixed-point loop.
	res := &Result{Attraction: target, Clamped: clamped}
	for res.Iterations < o.maxIter {
		res.Iterations++
		res.Residual = math.Max(s.updateB(), s.updateA())
		if res.Residual < o.tol {
			res.Converged = true
			break
		}
	}

	// Stage 4: outputs.
	if res.T, err = s.materialise(); err != nil {
		return nil, fmt.Errorf("%s: %w", opSolve, err)
	}
	res.A, res.B = s.a, s.b
	if zones := collect(s.singRows); len(zones) > 0 {
		res.Advisories = append(res.Advisories, &SingularError{Axis: Origin, Zones: zones})
	}
	if zones := collect(s.singCols); len(zones) > 0 {
		res.Advisories = append(res.Advisories, &SingularError{Axis: Destination, Zones: zones})
	}
	if !res.Converged {
		res.Advisories = append(res.Advisories, &ConvergenceError{
			Stage: "balance", Iterations: res.Iterations, Residual: res.Residual, Tolerance: o.tol,
		})
	}
	if o.constraints != nil {
		if err = o.constraints.WriteBack(target, clamped); err != nil {
			return nil, fmt.Errorf("%s: %w", opSolve, err)
		}
	}

	o.log.V(1).Info("balancing finished",
		"zones", n, "iterations", res.Iterations, "converged", res.Converged,
		"residual", res.Residual, "clamped", len(clamped), "advisories", len(res.Advisories))

	return res, nil
}

// state is the working set of one solve; owned by a single goroutine.
type state struct {
	n        int
	f        []float32 // deterrence, row-major
	oi, dj   []float64
	target   []float64 // D*
	a, b     []float64
	colDen   []float64 // scratch for column denominators
	singRows []bool
	singCols []bool
}

func newState(f []float32, oi, dj []float64) *state {
	n := len(oi)
	s := &state{
		n:        n,
		f:        f,
		oi:       append([]float64(nil), oi...),
		dj:       append([]float64(nil), dj...),
		a:        make([]float64, n),
		b:        make([]float64, n),
		colDen:   make([]float64, n),
		singRows: make([]bool, n),
		singCols: make([]bool, n),
	}
	for j := range s.b {
		s.b[j] = 1
	}

	return s
}

// excludeUnreachable flags origins with demand but no reachable attraction,
// then destinations with attraction but no reachable supply, zeroes their
// totals in the working copies and returns the origin mass left to place.
// A non-nil target masks out destinations whose target is 0. changed reports
// whether any zone was newly excluded.
func (s *state) excludeUnreachable(target []float64) (placeable float64, changed bool) {
	var i, j, base int
	var den float64
	for i = 0; i < s.n; i++ {
		if s.oi[i] == 0 {
			continue
		}
		den = 0
		base = i * s.n
		for j = 0; j < s.n; j++ {
			if target != nil && target[j] == 0 {
				continue
			}
			den += s.dj[j] * float64(s.f[base+j])
		}
		if den == 0 {
			s.singRows[i] = true
			s.oi[i] = 0
			changed = true
		}
	}

	for j = range s.colDen {
		s.colDen[j] = 0
	}
	for i = 0; i < s.n; i++ {
		if s.oi[i] == 0 {
			continue
		}
		base = i * s.n
		for j = 0; j < s.n; j++ {
			s.colDen[j] += s.oi[i] * float64(s.f[base+j])
		}
	}
	for j = 0; j < s.n; j++ {
		if s.dj[j] > 0 && s.colDen[j] == 0 {
			s.singCols[j] = true
			s.dj[j] = 0
			changed = true
		}
	}
	for i = 0; i < s.n; i++ {
		placeable += s.oi[i]
	}

	return placeable, changed
}

// updateA recomputes A from B and returns the max relative change.
func (s *state) updateA() float64 {
	var i, j, base int
	var den, next, change float64
	for i = 0; i < s.n; i++ {
		den = 0
		base = i * s.n
		for j = 0; j < s.n; j++ {
			den += s.b[j] * s.dj[j] * float64(s.f[base+j])
		}
		next = 0
		if den > 0 {
			next = 1 / den
		} else if s.oi[i] > 0 {
			s.singRows[i] = true // demand with nowhere to go
		}
		change = math.Max(change, relChange(s.a[i], next))
		s.a[i] = next
	}

	return change
}

// updateB recomputes B from A and returns the max relative change.
// Column denominators are accumulated in a row-major sweep.
func (s *state) updateB() float64 {
	var i, j, base int
	var w, next, change float64
	for j = range s.colDen {
		s.colDen[j] = 0
	}
	for i = 0; i < s.n; i++ {
		w = s.a[i] * s.oi[i]
		if w == 0 {
			continue
		}
		base = i * s.n
		for j = 0; j < s.n; j++ {
			s.colDen[j] += w * float64(s.f[base+j])
		}
	}
	for j = 0; j < s.n; j++ {
		next = 0
		switch {
		case s.dj[j] == 0 || s.target[j] == 0:
			// no attraction: column is empty by construction
		case s.colDen[j] > 0:
			next = (s.target[j] / s.dj[j]) / s.colDen[j]
		default:
			s.singCols[j] = true
		}
		change = math.Max(change, relChange(s.b[j], next))
		s.b[j] = next
	}

	return change
}

// materialise builds T[i][j] = A[i]·Oi[i]·B[j]·Dj[j]·f[i][j].
func (s *state) materialise() (*matrix.Dense, error) {
	buf := make([]float32, s.n*s.n)
	var i, j, base int
	var w float64
	for i = 0; i < s.n; i++ {
		w = s.a[i] * s.oi[i]
		if w == 0 {
			continue
		}
		base = i * s.n
		for j = 0; j < s.n; j++ {
			buf[base+j] = float32(w * s.b[j] * s.dj[j] * float64(s.f[base+j]))
		}
	}

	return matrix.NewDenseFrom(s.n, s.n, buf)
}

// relChange is |next-prev|/|prev|, with 0→0 as no change and 0→x as full change.
func relChange(prev, next float64) float64 {
	if prev == 0 {
		if next == 0 {
			return 0
		}
		return 1
	}

	return math.Abs(next-prev) / math.Abs(prev)
}

func checkVector(name string, v []float64) (float64, error) {
	var sum float64
	for k, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return 0, fmt.Errorf("%s[%d]=%g: %w", name, k, x, ErrBadVector)
		}
		sum += x
	}

	return sum, nil
}

func collect(flags []bool) []int {
	var out []int
	for k, set := range flags {
		if set {
			out = append(out, k)
		}
	}

	return out
}
