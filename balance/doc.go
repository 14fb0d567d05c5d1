// SPDX-License-Identifier: MIT

// Package balance solves the doubly-constrained gravity model for a fixed
// deterrence parameter.
//
// 🚀 What is balancing?
//
//	Given origin totals Oi, destination totals Dj, a cost matrix c and a
//	deterrence parameter β, find factors A (per origin) and B (per
//	destination) such that
//
//	  T[i][j] = A[i]·Oi[i]·B[j]·Dj[j]·exp(-β·c[i][j])
//	  Σ_j T[i][j] = Oi[i]      for every origin
//	  Σ_i T[i][j] = D*[j]      for every destination
//
//	where D* = Dj, or the capacity-clamped attraction when a ConstraintSet
//	is attached.
//
// ✨ Key features:
//   - iterative proportional fitting (Furness) with relative-change stopping
//   - deterrence matrix evaluated once per β (SolveWithDeterrence)
//   - capacity clamping by water-filling, with write-back of the clamped vector
//   - non-fatal advisories for unreachable zones and iteration caps
//
// ⚙️ Usage:
//
//	oi, dj := tobs.RowSums(), tobs.DestinationTotals()
//	res, err := balance.Solve(dis, 0.1, oi, dj,
//	    balance.WithTolerance(1e-6),
//	    balance.WithConstraints(cs))
//
// Performance:
//
//   - Time:   O(iterations·N²)
//   - Memory: O(N²) for the deterrence matrix and T
package balance
