// SPDX-License-Identifier: MIT

// Package balance: functional configuration for the balancing solver.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - Safe by construction: With* constructors panic only on nonsensical
//     values (programmer error); user data errors are returned.
//   - Options fields are unexported; public APIs consume ...Option.
package balance

import (
	"math"

	"github.com/go-logr/logr"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultTolerance bounds the maximum relative change of A and B between
	// two consecutive iterations.
	DefaultTolerance = 1e-6

	// DefaultMaxIterations caps the A/B fixed-point loop.
	DefaultMaxIterations = 1000
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicToleranceInvalid = "balance: WithTolerance: tol must be finite and > 0"
	panicMaxIterInvalid   = "balance: WithMaxIterations: n must be > 0"
)

// Option mutates internal options. Safe to apply repeatedly (last writer wins).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
type Options struct {
	tol         float64        // DefaultTolerance
	maxIter     int            // DefaultMaxIterations
	constraints *ConstraintSet // nil = unconstrained
	log         logr.Logger    // logr.Discard() by default
}

// NewOptions resolves opts on top of the defaults.
func NewOptions(opts ...Option) Options {
	o := Options{
		tol:     DefaultTolerance,
		maxIter: DefaultMaxIterations,
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// Tolerance returns the effective convergence tolerance.
func (o Options) Tolerance() float64 { return o.tol }

// MaxIterations returns the effective iteration cap.
func (o Options) MaxIterations() int { return o.maxIter }

// Constraints returns the attached constraint set (nil when unconstrained).
func (o Options) Constraints() *ConstraintSet { return o.constraints }

// WithTolerance sets the relative-change tolerance. Panics on tol <= 0 or non-finite.
func WithTolerance(tol float64) Option {
	if !(tol > 0) || math.IsInf(tol, 0) {
		panic(panicToleranceInvalid)
	}

	return func(o *Options) { o.tol = tol }
}

// WithMaxIterations sets the iteration cap. Panics on n <= 0.
func WithMaxIterations(n int) Option {
	if n <= 0 {
		panic(panicMaxIterInvalid)
	}

	return func(o *Options) { o.maxIter = n }
}

// WithConstraints enables capacity clamping against cs and write-back into it.
// A nil cs disables constraints.
func WithConstraints(cs *ConstraintSet) Option {
	return func(o *Options) { o.constraints = cs }
}

// WithLogger attaches a logger; per-solve diagnostics go to V(1).
func WithLogger(l logr.Logger) Option {
	return func(o *Options) { o.log = l }
}
