// SPDX-License-Identifier: MIT

package balance

import (
	"fmt"
	"math"
	"sync"
)

// ConstraintSet holds per-destination capacities and the attraction vector
// the solver writes back after a constrained solve.
//
// Capacity semantics (per destination zone j):
//   - +Inf    : unconstrained;
//   - 0       : excluded (e.g. green belt land unavailable for development);
//   - c > 0   : attracted trips may not exceed c.
//
// The attraction vector is the input/output artifact: it may be seeded from a
// previous run for reporting, but the solver never reads it; it only
// replaces it via WriteBack. Writes are serialised so one set may be shared
// between modes calibrated in parallel.
type ConstraintSet struct {
	mu         sync.Mutex
	capacity   []float64
	attraction []float64
	clamped    []int
}

// NewConstraintSet validates capacity (no NaN, no negatives; +Inf allowed)
// and returns a set owning a copy of it.
func NewConstraintSet(capacity []float64) (*ConstraintSet, error) {
	if len(capacity) == 0 {
		return nil, fmt.Errorf("constraints: empty capacity vector: %w", ErrBadVector)
	}
	cp := make([]float64, len(capacity))
	for j, v := range capacity {
		if math.IsNaN(v) || v < 0 {
			return nil, fmt.Errorf("constraints: capacity[%d]=%g: %w", j, v, ErrBadVector)
		}
		cp[j] = v
	}

	return &ConstraintSet{capacity: cp}, nil
}

// NewConstraintSetWithAttraction is NewConstraintSet seeded with a prior
// attraction vector (the "constraints B" file of an earlier run).
func NewConstraintSetWithAttraction(capacity, attraction []float64) (*ConstraintSet, error) {
	cs, err := NewConstraintSet(capacity)
	if err != nil {
		return nil, err
	}
	if attraction != nil {
		if len(attraction) != len(capacity) {
			return nil, fmt.Errorf("constraints: attraction length %d != %d: %w", len(attraction), len(capacity), ErrBadVector)
		}
		cs.attraction = append([]float64(nil), attraction...)
	}

	return cs, nil
}

// Len returns the number of destination zones covered.
func (c *ConstraintSet) Len() int { return len(c.capacity) }

// Capacity returns a copy of the capacity vector.
func (c *ConstraintSet) Capacity() []float64 { return append([]float64(nil), c.capacity...) }

// Attraction returns a copy of the last written-back attraction vector (nil if none).
func (c *ConstraintSet) Attraction() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attraction == nil {
		return nil
	}

	return append([]float64(nil), c.attraction...)
}

// Clamped returns the zones clamped to capacity by the last write-back.
func (c *ConstraintSet) Clamped() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]int(nil), c.clamped...)
}

// WriteBack replaces the attraction vector and the clamped-zone list.
func (c *ConstraintSet) WriteBack(attraction []float64, clamped []int) error {
	if len(attraction) != len(c.capacity) {
		return fmt.Errorf("constraints: write-back length %d != %d: %w", len(attraction), len(c.capacity), ErrBadVector)
	}
	c.mu.Lock()
	c.attraction = append([]float64(nil), attraction...)
	c.clamped = append([]int(nil), clamped...)
	c.mu.Unlock()

	return nil
}

// clampTargets computes the effective destination targets D* for the
// doubly-constrained model.
//
// Implementation (water-filling):
//   - Stage 1: start from Dj rescaled so Σ D* == total (absorbs float32 drift).
//   - Stage 2: fix every zone whose target exceeds its capacity at the capacity.
//   - Stage 3: share the remaining mass over free zones in proportion to Dj.
//   - Repeat 2–3 until no free zone exceeds capacity (at most n passes).
//
// A nil capacity returns the rescaled Dj unchanged. Zones with Dj == 0 never
// attract flow (Dj multiplies every cell of their column).
//
// Errors: ErrInfeasibleConstraints when the free zones cannot take the rest.
func clampTargets(dj, capacity []float64, total float64) ([]float64, []int, error) {
	n := len(dj)
	out := make([]float64, n)
	fixed := make([]bool, n)

	var j, pass int
	for pass = 0; pass <= n; pass++ {
		var fixedMass, freeBase float64
		for j = 0; j < n; j++ {
			if fixed[j] {
				fixedMass += capacity[j]
			} else {
				freeBase += dj[j]
			}
		}
		remaining := total - fixedMass
		if freeBase == 0 {
			if remaining > total*1e-9 {
				return nil, nil, fmt.Errorf("%w: %g trips unassigned", ErrInfeasibleConstraints, remaining)
			}
			remaining = 0
			freeBase = 1 // every free dj is 0, so scale is irrelevant
		}
		scale := remaining / freeBase

		changed := false
		for j = 0; j < n; j++ {
			if fixed[j] {
				out[j] = capacity[j]
				continue
			}
			out[j] = dj[j] * scale
			if capacity != nil && out[j] > capacity[j] {
				fixed[j] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	var clamped []int
	for j = 0; j < n; j++ {
		if fixed[j] {
			clamped = append(clamped, j)
		}
	}

	return out, clamped, nil
}
