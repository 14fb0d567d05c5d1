// SPDX-License-Identifier: MIT

package model

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/gravcal/matrix"
)

var (
	// ErrEmptyDataset is returned when a run has no modes.
	ErrEmptyDataset = errors.New("model: dataset has no modes")

	// ErrDuplicateMode is returned when two modes share a name.
	ErrDuplicateMode = errors.New("model: duplicate mode name")

	// ErrMissingMatrix is returned when a mode lacks TObs or Dis.
	ErrMissingMatrix = errors.New("model: mode is missing a matrix")
)

// DimensionMismatchError identifies the mode and matrix whose zone count
// disagrees with the run's N. It matches matrix.ErrDimensionMismatch.
type DimensionMismatchError struct {
	Mode   string
	Matrix string // "TObs", "dis" or "constraints"
	Want   int
	Rows   int
	Cols   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("model: mode %q matrix %s is %dx%d, want %dx%d",
		e.Mode, e.Matrix, e.Rows, e.Cols, e.Want, e.Want)
}

// Unwrap lets errors.Is(err, matrix.ErrDimensionMismatch) succeed.
func (e *DimensionMismatchError) Unwrap() error { return matrix.ErrDimensionMismatch }

// Dataset is the ordered list of modes calibrated together.
type Dataset struct {
	Modes []Mode
}

// NewDataset builds a Dataset and validates it (see Validate).
func NewDataset(modes ...Mode) (*Dataset, error) {
	d := &Dataset{Modes: modes}
	if _, err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

// Validate checks names, presence and shapes and returns the shared zone count.
// N is taken from the first mode's TObs; every TObs, Dis and constraint vector
// must agree with it.
//
// Errors: ErrEmptyDataset, ErrDuplicateMode, ErrMissingMatrix,
// *DimensionMismatchError.
func (d *Dataset) Validate() (int, error) {
	if d == nil || len(d.Modes) == 0 {
		return 0, ErrEmptyDataset
	}

	seen := make(map[string]struct{}, len(d.Modes))
	n := -1
	for _, m := range d.Modes {
		if _, dup := seen[m.Name]; dup {
			return 0, fmt.Errorf("%w: %q", ErrDuplicateMode, m.Name)
		}
		seen[m.Name] = struct{}{}

		if m.TObs == nil || m.Dis == nil {
			return 0, fmt.Errorf("%w: %q", ErrMissingMatrix, m.Name)
		}
		if n < 0 {
			n = m.TObs.Rows()
		}
		if err := checkShape(m.Name, "TObs", m.TObs, n); err != nil {
			return 0, err
		}
		if err := checkShape(m.Name, "dis", m.Dis, n); err != nil {
			return 0, err
		}
		if m.Constraints != nil && m.Constraints.Len() != n {
			return 0, &DimensionMismatchError{Mode: m.Name, Matrix: "constraints", Want: n, Rows: 1, Cols: m.Constraints.Len()}
		}
	}

	return n, nil
}

// Names returns the mode names in dataset order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.Modes))
	for i, m := range d.Modes {
		out[i] = m.Name
	}

	return out
}

func checkShape(mode, name string, m *matrix.Dense, n int) error {
	r, c := m.Shape()
	if r != n || c != n {
		return &DimensionMismatchError{Mode: mode, Matrix: name, Want: n, Rows: r, Cols: c}
	}

	return nil
}
