// SPDX-License-Identifier: MIT

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-logr/logr"
	"github.com/katalvlaran/gravcal/calibrate"
	"github.com/katalvlaran/gravcal/config"
	"github.com/katalvlaran/gravcal/logging"
	"github.com/katalvlaran/gravcal/metrics"
	"github.com/katalvlaran/gravcal/model"
	"github.com/katalvlaran/gravcal/stats"
)

// ErrModesFailed is returned by Run when at least one mode could not be
// calibrated. Outputs of the other modes are still written.
var ErrModesFailed = errors.New("pipeline: some modes failed")

// Summary is what a run produced.
type Summary struct {
	Outcomes []model.Outcome
	Report   *stats.Report
	Written  []string // output files, in write order
}

// Pipeline runs one calibration end to end from a RunConfig.
type Pipeline struct {
	cfg config.RunConfig
	log logr.Logger
	rec *metrics.Recorder
}

// New returns a pipeline for cfg. cfg must have passed Validate.
func New(cfg config.RunConfig) *Pipeline {
	return &Pipeline{cfg: cfg, log: logr.Discard(), rec: metrics.New()}
}

// Metrics returns the recorder filled by Run.
func (p *Pipeline) Metrics() *metrics.Recorder { return p.rec }

func (p *Pipeline) workers() int {
	if p.cfg.Calibration.Workers > 0 {
		return p.cfg.Calibration.Workers
	}

	return runtime.GOMAXPROCS(0)
}

// Run executes the calibration, logging through the logger carried by ctx
// (logging.IntoContext).
//
// Implementation:
//   - Stage 1: create OutputDir; write the inputs manifest.
//   - Stage 2: load matrices and the optional capacity vector.
//   - Stage 3: calibrate every mode (calibrate.Calibrator.Run).
//   - Stage 4: write TPred_<k>.bin per calibrated mode (k is 1-based).
//   - Stage 5: statistics report (population table as metadata).
//   - Stage 6: geocoded Dj<Mode>Pred.csv / Dj<Mode>Obs.csv when zone codes are set.
//   - Stage 7: constraint write-back files; metrics textfile.
//
// Errors: load and write failures abort the run; a dimension mismatch
// aborts before calibration; failed modes are reported through
// ErrModesFailed after the remaining outputs are written.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}
	p.log = logging.FromContext(ctx).WithName("pipeline")
	p.log.Info("run configuration",
		"opcode", p.cfg.OpCode, "modelRunsDir", p.cfg.ModelRunsDir, "outputDir", p.cfg.OutputDir,
		"modes", len(p.cfg.Modes), "constraints", p.cfg.Constraints.Enabled)

	// Stage 1.
	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	if err := p.written(sum)(p.writeManifest()); err != nil {
		return nil, err
	}

	// Stage 2.
	ds, err := p.loadDataset(ctx)
	if err != nil {
		return nil, err
	}

	// Stage 3.
	opts, err := p.cfg.CalibrateOptions()
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	opts = append(opts, calibrate.WithLogger(p.log.WithName("calibrate")))
	start := time.Now()
	sum.Outcomes, err = calibrate.New(opts...).Run(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p.rec.ObserveDuration(time.Since(start))

	var failed []error
	for _, o := range sum.Outcomes {
		p.rec.ObserveOutcome(o)
		if o.Err != nil {
			failed = append(failed, o.Err)
			continue
		}
		r := o.Result
		p.log.Info("calibration complete",
			"mode", o.Mode, "beta", r.Beta, "cbarObsMinutes", r.CBarObs, "cbarPredMinutes", r.CBarPred,
			"converged", r.Converged)
	}

	// Stage 4.
	if err := p.writePredictions(sum); err != nil {
		return nil, err
	}

	// Stage 5.
	pop, err := p.loadPopulation()
	if err != nil {
		return nil, err
	}
	if sum.Report, err = stats.Compute(ds, sum.Outcomes, pop); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	p.rec.ObserveReport(sum.Report)
	if err := p.written(sum)(p.writeReport(sum.Report)); err != nil {
		return nil, err
	}
	for _, m := range sum.Report.Modes {
		if m.Err == "" {
			p.log.Info("sorensen-dice index", "mode", m.Mode, "phid", m.Phid)
		}
	}

	// Stage 6.
	if err := p.writeGeocoded(sum, ds); err != nil {
		return nil, err
	}

	// Stage 7.
	if err := p.writeConstraints(sum, ds); err != nil {
		return nil, err
	}
	if err := p.written(sum)(p.writeMetrics()); err != nil {
		return nil, err
	}

	if len(failed) > 0 {
		return sum, fmt.Errorf("%w: %w", ErrModesFailed, errors.Join(failed...))
	}

	return sum, nil
}

// written records a non-empty path produced by a writer step.
func (p *Pipeline) written(sum *Summary) func(string, error) error {
	return func(path string, err error) error {
		if err != nil {
			return err
		}
		if path != "" {
			sum.Written = append(sum.Written, path)
		}

		return nil
	}
}
