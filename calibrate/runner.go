// SPDX-License-Identifier: MIT

package calibrate

import (
	"context"
	"fmt"

	"github.com/katalvlaran/gravcal/model"
	"golang.org/x/sync/errgroup"
)

// Run calibrates every mode of ds and returns one Outcome per mode, in
// dataset order.
//
// Implementation:
//   - Stage 1: ds.Validate(); a shape disagreement aborts before any solve.
//   - Stage 2: modes are handed to at most Workers goroutines.
//   - Stage 3: each goroutine writes only its own Outcome slot.
//
// A failing mode (e.g. an all-zero TObs) sets its Outcome.Err and the other
// modes proceed. Cancelling ctx stops new modes from starting; those get
// ctx.Err() as their Outcome.Err and Run returns ctx.Err() as well.
func (c *Calibrator) Run(ctx context.Context, ds *model.Dataset) ([]model.Outcome, error) {
	n, err := ds.Validate()
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}
	c.opts.log.Info("calibrating dataset",
		"modes", len(ds.Modes), "zones", n, "workers", c.opts.workers, "method", c.opts.method.String())

	out := make([]model.Outcome, len(ds.Modes))
	var g errgroup.Group
	g.SetLimit(c.opts.workers)
	for k, mode := range ds.Modes {
		k, mode := k, mode // per-iteration copies (go 1.21 loop semantics)
		out[k].Mode = mode.Name
		if err := ctx.Err(); err != nil {
			out[k].Err = err
			continue
		}
		g.Go(func() error {
			res, err := c.Calibrate(mode)
			out[k].Result, out[k].Err = res, err
			if err != nil {
				c.opts.log.Error(err, "mode failed", "mode", mode.Name)
			}

			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; failures live in out

	return out, ctx.Err()
}
