// SPDX-License-Identifier: MIT
// Package balance_test contains unit tests for the doubly-constrained solver.
// They cover the closed-form uniform-cost case, mass conservation, capacity
// clamping and write-back, unreachable zones, iteration caps and input errors.
package balance_test

import (
	"errors"
	"math"
	"testing"

	"github.com/katalvlaran/gravcal/balance"
	"github.com/katalvlaran/gravcal/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dense(t *testing.T, n int, vals ...float32) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(n, n, append([]float32(nil), vals...))
	require.NoError(t, err)

	return m
}

var asymmetricCost = []float32{
	1, 2, 3,
	2, 1, 2,
	3, 2, 1,
}

// ------------------------------------------------------------------------
// 1. Closed-form and conservation
// ------------------------------------------------------------------------

func TestSolve_UniformCost_ProportionalFit(t *testing.T) {
	// With identical costs f is constant, so T[i][j] = Oi·Dj/ΣT for any β.
	cost := dense(t, 3, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	oi := []float64{10, 20, 30}
	dj := []float64{15, 20, 25}

	res, err := balance.Solve(cost, 0.1, oi, dj)
	require.NoError(t, err)
	require.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	assert.Empty(t, res.Advisories)

	for i := range oi {
		for j := range dj {
			v, err := res.T.At(i, j)
			require.NoError(t, err)
			assert.InDelta(t, oi[i]*dj[j]/60, float64(v), 1e-4, "T[%d][%d]", i, j)
		}
	}
}

func TestSolve_ConservesMargins(t *testing.T) {
	cost := dense(t, 3, asymmetricCost...)
	oi := []float64{10, 20, 30}
	dj := []float64{30, 20, 10}

	res, err := balance.Solve(cost, 0.5, oi, dj, balance.WithTolerance(1e-9))
	require.NoError(t, err)
	require.True(t, res.Converged, "residual %g", res.Residual)

	for i, got := range res.T.RowSums() {
		assert.InDelta(t, oi[i], got, 1e-3, "row %d", i)
	}
	for j, got := range res.T.DestinationTotals() {
		assert.InDelta(t, dj[j], got, 1e-3, "col %d", j)
	}
	assert.InDeltaSlice(t, dj, res.Attraction, 1e-9)
}

func TestSolve_BetaZeroIgnoresCost(t *testing.T) {
	// β = 0 makes f ≡ 1 whatever the cost.
	cost := dense(t, 2, 0, 100, 100, 0)
	res, err := balance.Solve(cost, 0, []float64{4, 6}, []float64{5, 5})
	require.NoError(t, err)

	v, err := res.T.At(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, float64(v), 1e-5)
}

func TestSolveWithDeterrence_MatchesSolve(t *testing.T) {
	cost := dense(t, 3, asymmetricCost...)
	oi := []float64{10, 20, 30}
	dj := []float64{30, 20, 10}

	f, err := balance.Deterrence(cost, 0.5)
	require.NoError(t, err)
	a, err := balance.SolveWithDeterrence(f, oi, dj)
	require.NoError(t, err)
	b, err := balance.Solve(cost, 0.5, oi, dj)
	require.NoError(t, err)

	assert.Equal(t, a.T.Raw(), b.T.Raw())
	assert.Equal(t, a.Iterations, b.Iterations)
}

func TestDeterrence_RowRelative(t *testing.T) {
	// exp(-0.3·1001) underflows float32; each row is measured from its
	// cheapest cell instead.
	cost := dense(t, 3, asymmetricCost...)
	far := cost.CloneDense()
	require.NoError(t, far.Apply(func(_, _ int, v float32) float32 { return v + 1000 }))

	f, err := balance.Deterrence(far, 0.3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		row := f.Raw()[i*3 : i*3+3]
		assert.Equal(t, float32(1), max(row[0], row[1], row[2]), "row %d", i)
	}

	oi := []float64{10, 20, 30}
	dj := []float64{30, 20, 10}
	near, err := balance.Solve(cost, 0.3, oi, dj)
	require.NoError(t, err)
	offset, err := balance.Solve(far, 0.3, oi, dj)
	require.NoError(t, err)
	assert.Empty(t, offset.Advisories)
	assert.Equal(t, near.T.Raw(), offset.T.Raw())
}

// ------------------------------------------------------------------------
// 2. Capacity constraints
// ------------------------------------------------------------------------

func TestSolve_CapacityClampRedistributes(t *testing.T) {
	cost := dense(t, 3, asymmetricCost...)
	oi := []float64{10, 20, 30}
	dj := []float64{15, 20, 25}
	cs, err := balance.NewConstraintSet([]float64{math.Inf(1), 10, math.Inf(1)})
	require.NoError(t, err)

	res, err := balance.Solve(cost, 0.2, oi, dj,
		balance.WithConstraints(cs), balance.WithTolerance(1e-9))
	require.NoError(t, err)

	want := []float64{18.75, 10, 31.25}
	assert.InDeltaSlice(t, want, res.Attraction, 1e-9)
	assert.Equal(t, []int{1}, res.Clamped)
	for j, got := range res.T.DestinationTotals() {
		assert.InDelta(t, want[j], got, 1e-3, "col %d", j)
	}

	// the set carries the clamped vector for the caller
	assert.InDeltaSlice(t, want, cs.Attraction(), 1e-9)
	assert.Equal(t, []int{1}, cs.Clamped())
}

func TestSolve_ZeroCapacityExcludesZone(t *testing.T) {
	cost := dense(t, 3, asymmetricCost...)
	oi := []float64{10, 20, 30}
	dj := []float64{15, 20, 25}
	cs, err := balance.NewConstraintSet([]float64{math.Inf(1), 0, math.Inf(1)})
	require.NoError(t, err)

	res, err := balance.Solve(cost, 0.2, oi, dj, balance.WithConstraints(cs))
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{22.5, 0, 37.5}, res.Attraction, 1e-9)
	assert.Zero(t, res.T.DestinationTotals()[1])
	assert.Zero(t, res.B[1])
}

func TestSolve_InfeasibleCapacity(t *testing.T) {
	cost := dense(t, 3, asymmetricCost...)
	cs, err := balance.NewConstraintSet([]float64{5, 5, 5})
	require.NoError(t, err)

	_, err = balance.Solve(cost, 0.2, []float64{10, 20, 30}, []float64{15, 20, 25},
		balance.WithConstraints(cs))
	assert.ErrorIs(t, err, balance.ErrInfeasibleConstraints)
	assert.Nil(t, cs.Attraction(), "failed solves must not write back")
}

func TestSolve_ConstraintLengthMismatch(t *testing.T) {
	cost := dense(t, 3, asymmetricCost...)
	cs, err := balance.NewConstraintSet([]float64{1, 1})
	require.NoError(t, err)

	_, err = balance.Solve(cost, 0.2, []float64{1, 1, 1}, []float64{1, 1, 1},
		balance.WithConstraints(cs))
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// ------------------------------------------------------------------------
// 3. Advisories
// ------------------------------------------------------------------------

func TestSolve_UnreachableOriginIsAdvisory(t *testing.T) {
	// exp(-9999) underflows to 0 in float32 and destination 0 attracts
	// nothing: origin 0 reaches no attraction.
	cost := dense(t, 2, 1, 1e4, 1, 1)
	res, err := balance.Solve(cost, 1, []float64{5, 5}, []float64{0, 10})
	require.NoError(t, err)
	require.True(t, res.Converged)

	require.Len(t, res.Advisories, 1)
	assert.ErrorIs(t, res.Advisories[0], balance.ErrSingular)
	var se *balance.SingularError
	require.True(t, errors.As(res.Advisories[0], &se))
	assert.Equal(t, balance.Origin, se.Axis)
	assert.Equal(t, []int{0}, se.Zones)

	assert.Zero(t, res.A[0])
	assert.InDeltaSlice(t, []float64{0, 5}, res.Attraction, 1e-9)
	sums := res.T.RowSums()
	assert.Zero(t, sums[0])
	assert.InDelta(t, 5.0, sums[1], 1e-4)
	for _, v := range res.T.Raw() {
		assert.False(t, math.IsNaN(float64(v)))
	}
}

func TestSolve_ZeroCapacityStrandsOrigin(t *testing.T) {
	// Origin 0 only reaches destination 2, whose capacity is 0. Its trips
	// must leave the targets before they are sized.
	cost := dense(t, 3,
		1e6, 1e6, 1,
		1, 1, 1,
		1, 1, 1,
	)
	cs, err := balance.NewConstraintSet([]float64{math.Inf(1), math.Inf(1), 0})
	require.NoError(t, err)

	res, err := balance.Solve(cost, 1, []float64{5, 10, 10}, []float64{10, 10, 5},
		balance.WithConstraints(cs), balance.WithTolerance(1e-9))
	require.NoError(t, err)
	require.True(t, res.Converged)

	want := []float64{10, 10, 0}
	assert.InDeltaSlice(t, want, res.Attraction, 1e-9)
	assert.InDeltaSlice(t, want, res.T.DestinationTotals(), 1e-4)
	assert.InDeltaSlice(t, []float64{0, 10, 10}, res.T.RowSums(), 1e-4)
	assert.InDeltaSlice(t, want, cs.Attraction(), 1e-9)
	assert.Equal(t, []int{2}, cs.Clamped())

	var se *balance.SingularError
	require.True(t, errors.As(res.Advisories[0], &se))
	assert.Equal(t, balance.Origin, se.Axis)
	assert.Equal(t, []int{0}, se.Zones)
}

func TestSolve_IterationCapIsAdvisory(t *testing.T) {
	cost := dense(t, 3, asymmetricCost...)
	res, err := balance.Solve(cost, 0.5, []float64{10, 20, 30}, []float64{30, 20, 10},
		balance.WithMaxIterations(1))
	require.NoError(t, err)

	assert.False(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	require.NotNil(t, res.T)
	require.Len(t, res.Advisories, 1)
	assert.ErrorIs(t, res.Advisories[0], balance.ErrNotConverged)

	var ce *balance.ConvergenceError
	require.True(t, errors.As(res.Advisories[0], &ce))
	assert.Equal(t, "balance", ce.Stage)
}

// ------------------------------------------------------------------------
// 4. Input validation
// ------------------------------------------------------------------------

func TestSolve_InputErrors(t *testing.T) {
	cost := dense(t, 2, 1, 2, 2, 1)
	rect, err := matrix.NewDense(2, 3)
	require.NoError(t, err)

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"nil cost", func() error { _, e := balance.Solve(nil, 1, []float64{1, 1}, []float64{1, 1}); return e }, matrix.ErrNilMatrix},
		{"non-square", func() error { _, e := balance.Solve(rect, 1, []float64{1, 1}, []float64{1, 1}); return e }, matrix.ErrNonSquare},
		{"negative beta", func() error { _, e := balance.Solve(cost, -1, []float64{1, 1}, []float64{1, 1}); return e }, balance.ErrBadBeta},
		{"NaN beta", func() error { _, e := balance.Solve(cost, math.NaN(), []float64{1, 1}, []float64{1, 1}); return e }, balance.ErrBadBeta},
		{"short Oi", func() error { _, e := balance.Solve(cost, 1, []float64{1}, []float64{1, 1}); return e }, matrix.ErrDimensionMismatch},
		{"negative Dj", func() error { _, e := balance.Solve(cost, 1, []float64{1, 1}, []float64{3, -1}); return e }, balance.ErrBadVector},
		{"totals differ", func() error { _, e := balance.Solve(cost, 1, []float64{1, 1}, []float64{1, 5}); return e }, balance.ErrTotalsMismatch},
		{"zero trips", func() error { _, e := balance.Solve(cost, 1, []float64{0, 0}, []float64{0, 0}); return e }, matrix.ErrDegenerateInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), tc.want)
		})
	}
}

func TestOptions_PanicOnProgrammerError(t *testing.T) {
	assert.Panics(t, func() { balance.WithTolerance(0) })
	assert.Panics(t, func() { balance.WithTolerance(math.Inf(1)) })
	assert.Panics(t, func() { balance.WithMaxIterations(0) })

	o := balance.NewOptions(balance.WithTolerance(1e-3), nil, balance.WithMaxIterations(7))
	assert.Equal(t, 1e-3, o.Tolerance())
	assert.Equal(t, 7, o.MaxIterations())
	assert.Nil(t, o.Constraints())
}
