// SPDX-License-Identifier: MIT

package calibrate

import (
	"errors"

	"github.com/katalvlaran/gravcal/balance"
)

var (
	// ErrNotConverged is the advisory sentinel for a β search that stopped on
	// an iteration cap or could not bracket the target. It is the same value
	// as balance.ErrNotConverged so one errors.Is check covers both stages.
	ErrNotConverged = balance.ErrNotConverged

	// ErrUnknownMethod is returned by ParseMethod for unrecognised names.
	ErrUnknownMethod = errors.New("calibrate: unknown root-finding method")
)

// Stage names carried by *balance.ConvergenceError values produced here.
const (
	StageSearch  = "beta-search"
	StageBracket = "beta-bracket"
)
