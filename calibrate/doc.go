// SPDX-License-Identifier: MIT

// Package calibrate fits the deterrence parameter β of the doubly-constrained
// gravity model, one transport mode at a time.
//
// For a mode with observed trips TObs and costs Dis, the target is the
// observed flow-weighted mean cost CBarObs. Predicted CBar falls as β grows,
// so a one-dimensional root search on CBar(β) - CBarObs finds β. Every trial
// is a full balancing solve (package balance).
//
//	c := calibrate.New(
//	    calibrate.WithTolerance(1e-3),    // minutes
//	    calibrate.WithWorkers(3),
//	    calibrate.WithLogger(log))
//	outcomes, err := c.Run(ctx, dataset) // err only for shape errors or ctx
//
// Modes are independent and run in parallel up to Workers. A mode whose
// observed matrix is empty fails alone (Outcome.Err). Iteration caps are
// reported through Result.Converged and Result.Advisories.
package calibrate
