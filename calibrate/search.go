// SPDX-License-Identifier: MIT

package calibrate

import (
	"math"

	"github.com/katalvlaran/gravcal/balance"
)

// bracketCollapse stops the root finder once the bracket width falls under
// this fraction of β; further trials cannot change CBar measurably.
const bracketCollapse = 1e-12

// run drives the search and reports whether the tolerance was met. On a
// false result stage names the step that gave up. s.best is always set when
// err is nil.
func (s *search) run() (converged bool, stage string, err error) {
	// Stage 2: initial guess.
	beta0 := 1.0
	if s.target > 0 {
		beta0 = 1 / s.target
	}
	t0, err := s.eval(beta0)
	if err != nil {
		return false, "", err
	}
	if s.done(t0) {
		return true, "", nil
	}

	// Stage 3: expand away from β0 until the gap changes sign.
	lo, hi, edge := t0, t0, t0
	for step := 0; !(lo.gap > 0 && hi.gap < 0); step++ {
		if step >= s.opts.maxBracket {
			return false, StageBracket, nil
		}
		if s.exhausted() {
			return false, StageSearch, nil
		}
		beta := edge.beta / 2
		if t0.gap > 0 {
			beta = edge.beta * 2
		}
		if edge, err = s.eval(beta); err != nil {
			return false, "", err
		}
		if s.done(edge) {
			return true, "", nil
		}
		if edge.gap > 0 {
			lo = edge
		} else {
			hi = edge
		}
	}

	// Stage 4: shrink the bracket [lo.beta, hi.beta]; lo.gap > 0 > hi.gap.
	glo, ghi := lo.gap, hi.gap
	side := 0
	for !s.exhausted() {
		if hi.beta-lo.beta <= bracketCollapse*hi.beta {
			break
		}
		beta := 0.5 * (lo.beta + hi.beta)
		if s.opts.method == Illinois {
			if next := (lo.beta*ghi - hi.beta*glo) / (ghi - glo); next > lo.beta && next < hi.beta {
				beta = next
			}
		}

		t, err := s.eval(beta)
		if err != nil {
			return false, "", err
		}
		if s.done(t) {
			return true, "", nil
		}
		if t.gap > 0 {
			lo, glo = t, t.gap
			if side > 0 {
				ghi /= 2
			}
			side = 1
		} else {
			hi, ghi = t, t.gap
			if side < 0 {
				glo /= 2
			}
			side = -1
		}
	}

	return false, StageSearch, nil
}

// eval balances the model at beta and records the trial.
func (s *search) eval(beta float64) (*trial, error) {
	s.evals++
	f, err := balance.Deterrence(s.cost, beta)
	if err != nil {
		return nil, err
	}
	res, err := balance.SolveWithDeterrence(f, s.oi, s.dj, s.bopts...)
	if err != nil {
		return nil, err
	}
	cbar, err := res.T.WeightedMean(s.cost)
	if err != nil {
		return nil, err
	}

	t := &trial{beta: beta, cbar: cbar, gap: cbar - s.target, res: res}
	if s.best == nil || math.Abs(t.gap) < math.Abs(s.best.gap) {
		s.best = t
	}
	s.log.V(1).Info("beta trial",
		"trial", s.evals, "beta", beta, "cbarPred", cbar, "gap", t.gap,
		"balanceIterations", res.Iterations, "balanceConverged", res.Converged)

	return t, nil
}

func (s *search) done(t *trial) bool { return math.Abs(t.gap) < s.opts.tol }

func (s *search) exhausted() bool { return s.evals >= s.opts.maxIter }
