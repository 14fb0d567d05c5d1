// SPDX-License-Identifier: MIT

package stats

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/gravcal/model"
)

// ErrOutcomeMismatch is returned by Compute when the outcomes do not line up
// with the dataset's modes.
var ErrOutcomeMismatch = errors.New("stats: outcomes do not match dataset modes")

// Population is the contextual summary of the zone attribute table. It never
// feeds back into calibration.
type Population struct {
	Zones int     // rows in the table
	Total float64 // sum of the population column
}

// ModeStats is the goodness-of-fit record of one mode.
type ModeStats struct {
	Mode       string
	Beta       float64
	CBarObs    float64 // minutes
	CBarPred   float64 // minutes
	DjObs      []float64
	DjPred     []float64
	Phid       float64 // Sorensen–Dice overlap of DjObs and DjPred
	Iterations int
	Converged  bool
	Notes      []string // advisories, rendered
	Err        string   // set when calibration of this mode failed
}

// Report is the statistics output of one run, modes in dataset order.
type Report struct {
	Zones           int // N shared by every matrix of the run
	PopulationZones int
	TotalPopulation float64
	Modes           []ModeStats
}

// Lookup returns the statistics of the named mode.
func (r *Report) Lookup(name string) (ModeStats, bool) {
	for _, m := range r.Modes {
		if m.Mode == name {
			return m, true
		}
	}

	return ModeStats{}, false
}

// Compute assembles the Report from a dataset and its calibration outcomes.
//
// Implementation:
//   - Stage 1: check outcomes[k] belongs to ds.Modes[k].
//   - Stage 2: DjObs from TObs for every mode, failed ones included.
//   - Stage 3: for calibrated modes, DjPred from TPred and Phid(DjObs, DjPred).
//
// A failed mode keeps its error text in ModeStats.Err. Errors: model
// validation errors, ErrOutcomeMismatch.
func Compute(ds *model.Dataset, outcomes []model.Outcome, pop Population) (*Report, error) {
	n, err := ds.Validate()
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	if len(outcomes) != len(ds.Modes) {
		return nil, fmt.Errorf("%w: %d outcomes for %d modes", ErrOutcomeMismatch, len(outcomes), len(ds.Modes))
	}

	r := &Report{
		Zones:           n,
		PopulationZones: pop.Zones,
		TotalPopulation: pop.Total,
		Modes:           make([]ModeStats, len(outcomes)),
	}
	for k, o := range outcomes {
		mode := ds.Modes[k]
		if o.Mode != mode.Name {
			return nil, fmt.Errorf("%w: outcome %d is %q, want %q", ErrOutcomeMismatch, k, o.Mode, mode.Name)
		}
		ms := ModeStats{Mode: mode.Name, DjObs: mode.TObs.DestinationTotals()}
		if o.Err != nil || o.Result == nil {
			ms.Err = "no result"
			if o.Err != nil {
				ms.Err = o.Err.Error()
			}
			r.Modes[k] = ms
			continue
		}

		res := o.Result
		ms.Beta, ms.CBarObs, ms.CBarPred = res.Beta, res.CBarObs, res.CBarPred
		ms.Iterations, ms.Converged = res.Iterations, res.Converged
		ms.DjPred = res.TPred.DestinationTotals()
		if ms.Phid, err = Phid(ms.DjObs, ms.DjPred); err != nil {
			ms.Notes = append(ms.Notes, err.Error())
		}
		for _, adv := range res.Advisories {
			ms.Notes = append(ms.Notes, adv.Error())
		}
		r.Modes[k] = ms
	}

	return r, nil
}
