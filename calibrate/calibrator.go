// SPDX-License-Identifier: MIT

package calibrate

import (
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"github.com/katalvlaran/gravcal/balance"
	"github.com/katalvlaran/gravcal/matrix"
	"github.com/katalvlaran/gravcal/model"
)

// Calibrator finds the deterrence parameter of each mode. It holds only
// immutable options and may be shared between goroutines.
type Calibrator struct {
	opts Options
}

// New returns a Calibrator configured by opts.
func New(opts ...Option) *Calibrator {
	return &Calibrator{opts: NewOptions(opts...)}
}

// Options returns the effective configuration.
func (c *Calibrator) Options() Options { return c.opts }

// Calibrate searches β for one mode.
// MAIN DESCRIPTION:
//   - Finds β such that the flow-weighted mean cost of the balanced
//     prediction matches the observed one within Tolerance minutes.
//
// Implementation:
//   - Stage 1: CBarObs = TObs.WeightedMean(Dis); Oi and Dj from TObs.
//   - Stage 2: evaluate β0 = 1/CBarObs.
//   - Stage 3: bracket by doubling (CBar too high) or halving (too low) β.
//   - Stage 4: Illinois or bisection inside the bracket.
//   - Stage 5: the best trial seen becomes the Result; its targets are
//     written back into Mode.Constraints.
//
// Behavior highlights:
//   - Every trial is a full balancing solve with a fresh deterrence matrix;
//     nothing is carried between trials or modes.
//   - Caps and failed brackets are advisories (Converged=false), not errors.
//
// Errors (fatal for the mode):
//   - model.ErrMissingMatrix, matrix.ErrDegenerateInput (all-zero TObs),
//     balancing input errors such as balance.ErrInfeasibleConstraints.
func (c *Calibrator) Calibrate(mode model.Mode) (*model.Result, error) {
	if mode.TObs == nil || mode.Dis == nil {
		return nil, fmt.Errorf("calibrate: %w: %q", model.ErrMissingMatrix, mode.Name)
	}
	target, err := mode.TObs.WeightedMean(mode.Dis)
	if err != nil {
		return nil, fmt.Errorf("calibrate: mode %q: CBarObs: %w", mode.Name, err)
	}

	bopts := make([]balance.Option, 0, len(c.opts.balance)+2)
	bopts = append(bopts, balance.WithLogger(c.opts.log))
	bopts = append(bopts, c.opts.balance...)
	if mode.Constraints != nil {
		bopts = append(bopts, balance.WithConstraints(mode.Constraints))
	}

	s := &search{
		cost:   mode.Dis,
		target: target,
		oi:     mode.TObs.RowSums(),
		dj:     mode.TObs.DestinationTotals(),
		bopts:  bopts,
		opts:   c.opts,
		log:    c.opts.log.WithValues("mode", mode.Name),
	}
	converged, stage, err := s.run()
	if err != nil {
		return nil, fmt.Errorf("calibrate: mode %q: %w", mode.Name, err)
	}

	// Every trial wrote its own targets back; leave the set holding the
	// targets of the trial that is reported.
	best := s.best
	if mode.Constraints != nil {
		if err := mode.Constraints.WriteBack(best.res.Attraction, best.res.Clamped); err != nil {
			return nil, fmt.Errorf("calibrate: mode %q: %w", mode.Name, err)
		}
	}
	out := &model.Result{
		Mode:       mode.Name,
		Beta:       best.beta,
		TPred:      best.res.T,
		A:          best.res.A,
		B:          best.res.B,
		CBarObs:    target,
		CBarPred:   best.cbar,
		Attraction: best.res.Attraction,
		Iterations: s.evals,
		Converged:  converged,
	}
	out.Advisories = append(out.Advisories, best.res.Advisories...)
	if !converged {
		out.Advisories = append(out.Advisories, &balance.ConvergenceError{
			Stage:      stage,
			Iterations: s.evals,
			Residual:   math.Abs(best.gap),
			Tolerance:  c.opts.tol,
		})
	}

	s.log.Info("mode calibrated",
		"beta", out.Beta, "cbarObs", out.CBarObs, "cbarPred", out.CBarPred,
		"iterations", out.Iterations, "converged", out.Converged, "advisories", len(out.Advisories))

	return out, nil
}

// trial is one evaluated β.
type trial struct {
	beta float64
	cbar float64
	gap  float64 // cbar - target; decreasing in beta
	res  *balance.Result
}

// search is the per-mode working state; owned by one goroutine.
type search struct {
	cost   *matrix.Dense
	target float64
	oi, dj []float64
	bopts  []balance.Option
	opts   Options
	log    logr.Logger

	evals int
	best  *trial
}
