// SPDX-License-Identifier: MIT

// Package calibrate: functional configuration for the β search.
//
// Design goals:
//   - Defaults live in one place and are visible to callers (Default*).
//   - With* constructors panic only on nonsensical values (programmer error).
//   - Balancing options are forwarded untouched to every inner solve.
package calibrate

import (
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/go-logr/logr"
	"github.com/katalvlaran/gravcal/balance"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultTolerance is the accepted |CBarPred - CBarObs| gap, in minutes.
	DefaultTolerance = 1e-3

	// DefaultMaxIterations caps the number of balancing solves per mode,
	// bracket expansion included.
	DefaultMaxIterations = 100

	// DefaultMaxBracketSteps caps how many times the initial guess is doubled
	// or halved while looking for a sign change.
	DefaultMaxBracketSteps = 40
)

// ---------- Internal panic messages ----------

const (
	panicToleranceInvalid = "calibrate: WithTolerance: tol must be finite and > 0"
	panicMaxIterInvalid   = "calibrate: WithMaxIterations: n must be > 0"
	panicBracketInvalid   = "calibrate: WithMaxBracketSteps: n must be > 0"
	panicWorkersInvalid   = "calibrate: WithWorkers: n must be > 0"
	panicMethodInvalid    = "calibrate: WithMethod: unknown method"
)

// Method selects the one-dimensional root finder used on β.
type Method int

const (
	// Illinois is regula falsi with the Illinois modification: the retained
	// endpoint's residual is halved when the same side is kept twice.
	Illinois Method = iota

	// Bisection halves the bracket on every step.
	Bisection
)

func (m Method) String() string {
	switch m {
	case Illinois:
		return "illinois"
	case Bisection:
		return "bisection"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a configuration string to a Method (case-insensitive).
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "illinois", "regula-falsi":
		return Illinois, nil
	case "bisection", "bisect":
		return Bisection, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Option mutates internal options. Safe to apply repeatedly (last writer wins).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
type Options struct {
	tol        float64
	maxIter    int
	maxBracket int
	method     Method
	workers    int
	balance    []balance.Option
	log        logr.Logger
}

// NewOptions resolves opts on top of the defaults.
// Workers defaults to GOMAXPROCS.
func NewOptions(opts ...Option) Options {
	o := Options{
		tol:        DefaultTolerance,
		maxIter:    DefaultMaxIterations,
		maxBracket: DefaultMaxBracketSteps,
		method:     Illinois,
		workers:    runtime.GOMAXPROCS(0),
		log:        logr.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// Tolerance returns the CBar tolerance in minutes.
func (o Options) Tolerance() float64 { return o.tol }

// MaxIterations returns the cap on balancing solves per mode.
func (o Options) MaxIterations() int { return o.maxIter }

// MaxBracketSteps returns the cap on bracket expansion steps.
func (o Options) MaxBracketSteps() int { return o.maxBracket }

// Method returns the root finder.
func (o Options) Method() Method { return o.method }

// Workers returns the number of modes calibrated concurrently.
func (o Options) Workers() int { return o.workers }

// WithTolerance sets the CBar tolerance (minutes). Panics on tol <= 0 or non-finite.
func WithTolerance(tol float64) Option {
	if !(tol > 0) || math.IsInf(tol, 0) {
		panic(panicToleranceInvalid)
	}

	return func(o *Options) { o.tol = tol }
}

// WithMaxIterations caps the balancing solves per mode. Panics on n <= 0.
func WithMaxIterations(n int) Option {
	if n <= 0 {
		panic(panicMaxIterInvalid)
	}

	return func(o *Options) { o.maxIter = n }
}

// WithMaxBracketSteps caps bracket expansion. Panics on n <= 0.
func WithMaxBracketSteps(n int) Option {
	if n <= 0 {
		panic(panicBracketInvalid)
	}

	return func(o *Options) { o.maxBracket = n }
}

// WithMethod selects the root finder. Panics on an unknown Method.
func WithMethod(m Method) Option {
	if m != Illinois && m != Bisection {
		panic(panicMethodInvalid)
	}

	return func(o *Options) { o.method = m }
}

// WithWorkers bounds the number of modes calibrated in parallel. Panics on n <= 0.
func WithWorkers(n int) Option {
	if n <= 0 {
		panic(panicWorkersInvalid)
	}

	return func(o *Options) { o.workers = n }
}

// WithBalanceOptions forwards options to every balancing solve.
// A mode's own ConstraintSet is appended after these and therefore wins.
func WithBalanceOptions(opts ...balance.Option) Option {
	return func(o *Options) { o.balance = append(o.balance, opts...) }
}

// WithLogger attaches a logger: per-mode summaries at Info, trials at V(1).
// The same logger is handed to the balancing solver.
func WithLogger(l logr.Logger) Option {
	return func(o *Options) { o.log = l }
}
