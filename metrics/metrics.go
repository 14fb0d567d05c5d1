// SPDX-License-Identifier: MIT

package metrics

import (
	"fmt"
	"time"

	"github.com/katalvlaran/gravcal/model"
	"github.com/katalvlaran/gravcal/stats"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gravcal"

// Recorder holds the gauges of one calibration run on a private registry.
// Methods are safe for concurrent use.
type Recorder struct {
	reg *prometheus.Registry

	beta       *prometheus.GaugeVec
	cbarObs    *prometheus.GaugeVec
	cbarPred   *prometheus.GaugeVec
	phid       *prometheus.GaugeVec
	iterations *prometheus.GaugeVec
	converged  *prometheus.GaugeVec
	advisories *prometheus.GaugeVec
	failures   prometheus.Counter
	duration   prometheus.Gauge
}

// New registers the run metrics on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	mode := []string{"mode"}

	return &Recorder{
		reg: reg,
		beta: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beta",
			Help:      "Calibrated deterrence parameter per mode",
		}, mode),
		cbarObs: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cbar_observed_minutes",
			Help:      "Observed flow-weighted mean trip cost",
		}, mode),
		cbarPred: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cbar_predicted_minutes",
			Help:      "Predicted flow-weighted mean trip cost at the calibrated beta",
		}, mode),
		phid: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phid",
			Help:      "Sorensen-Dice index between observed and predicted destination totals [0,1]",
		}, mode),
		iterations: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beta_iterations",
			Help:      "Balancing solves performed by the beta search",
		}, mode),
		converged: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "converged",
			Help:      "1 when the beta search met its tolerance, 0 otherwise",
		}, mode),
		advisories: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "advisories",
			Help:      "Non-fatal conditions reported for the mode",
		}, mode),
		failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mode_failures_total",
			Help:      "Modes whose calibration failed",
		}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the calibration stage",
		}),
	}
}

// Registry exposes the underlying registry (e.g. for an HTTP handler).
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveOutcome records one mode's calibration outcome.
func (r *Recorder) ObserveOutcome(o model.Outcome) {
	if o.Err != nil || o.Result == nil {
		r.failures.Inc()
		return
	}
	res := o.Result
	r.beta.WithLabelValues(o.Mode).Set(res.Beta)
	r.cbarObs.WithLabelValues(o.Mode).Set(res.CBarObs)
	r.cbarPred.WithLabelValues(o.Mode).Set(res.CBarPred)
	r.iterations.WithLabelValues(o.Mode).Set(float64(res.Iterations))
	r.advisories.WithLabelValues(o.Mode).Set(float64(len(res.Advisories)))
	conv := 0.0
	if res.Converged {
		conv = 1
	}
	r.converged.WithLabelValues(o.Mode).Set(conv)
}

// ObserveReport records the per-mode Phid of a statistics report.
func (r *Recorder) ObserveReport(rep *stats.Report) {
	for _, m := range rep.Modes {
		if m.Err == "" {
			r.phid.WithLabelValues(m.Mode).Set(m.Phid)
		}
	}
}

// ObserveDuration records the calibration wall time.
func (r *Recorder) ObserveDuration(d time.Duration) { r.duration.Set(d.Seconds()) }

// WriteTextfile dumps the registry in text exposition format, for the node
// exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	return nil
}
