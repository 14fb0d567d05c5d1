// SPDX-License-Identifier: MIT

package matrixio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"
	"github.com/katalvlaran/gravcal/matrix"
)

// SnappyExt marks files holding the snappy framed encoding of the layout.
const SnappyExt = ".sz"

// Store writes m to path, snappy-compressed when path ends in SnappyExt.
func Store(path string, m *matrix.Dense) error {
	if err := matrix.ValidateNotNil(m); err != nil {
		return fmt.Errorf("matrixio: Store %s: %w", path, err)
	}
	r, c := m.Shape()

	return storeCells(path, r, c, m.Raw())
}

// Load reads a matrix stored by Store. Cells must be finite and non-negative.
func Load(path string) (*matrix.Dense, error) { return load(path, true) }

// StoreVector writes v as a 1×len(v) matrix; values are narrowed to float32.
// +Inf survives, so capacity vectors may mark unconstrained zones.
func StoreVector(path string, v []float64) error {
	if len(v) == 0 {
		return fmt.Errorf("matrixio: StoreVector %s: %w", path, matrix.ErrInvalidDimensions)
	}
	cells := make([]float32, len(v))
	for k, x := range v {
		cells[k] = float32(x)
	}

	return storeCells(path, 1, len(v), cells)
}

// LoadVector reads a 1×n or n×1 payload as a float64 vector. No numeric
// policy is applied; callers validate (e.g. balance.NewConstraintSet).
func LoadVector(path string) ([]float64, error) {
	m, err := load(path, false)
	if err != nil {
		return nil, err
	}
	if r, c := m.Shape(); r != 1 && c != 1 {
		return nil, fmt.Errorf("matrixio: LoadVector %s: %dx%d: %w", path, r, c, ErrNotVector)
	}
	raw := m.Raw()
	out := make([]float64, len(raw))
	for k, x := range raw {
		out[k] = float64(x)
	}

	return out, nil
}

func storeCells(path string, rows, cols int, cells []float32) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("matrixio: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("matrixio: close %s: %w", path, cerr)
		}
	}()

	var w io.Writer = f
	var sw *snappy.Writer
	if compressed(path) {
		sw = snappy.NewBufferedWriter(f)
		w = sw
	}
	if err = writeCells(w, rows, cols, cells); err != nil {
		return fmt.Errorf("matrixio: Store %s: %w", path, err)
	}
	if sw != nil {
		if err = sw.Close(); err != nil {
			return fmt.Errorf("matrixio: Store %s: snappy: %w", path, err)
		}
	}

	return nil
}

func load(path string, checked bool) (*matrix.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("matrixio: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if compressed(path) {
		r = snappy.NewReader(f)
	}
	m, err := read(r, checked)
	if err != nil {
		return nil, fmt.Errorf("matrixio: Load %s: %w", path, err)
	}

	return m, nil
}

func compressed(path string) bool { return strings.HasSuffix(strings.ToLower(path), SnappyExt) }
