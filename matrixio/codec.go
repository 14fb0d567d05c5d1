// SPDX-License-Identifier: MIT

package matrixio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/katalvlaran/gravcal/matrix"
)

var (
	// ErrCorrupt is returned for truncated payloads or impossible headers.
	ErrCorrupt = errors.New("matrixio: corrupt matrix stream")

	// ErrNotVector is returned by LoadVector for a payload with more than one
	// row and more than one column.
	ErrNotVector = errors.New("matrixio: payload is not a vector")
)

// maxCells bounds the allocation a header may request (8 GiB of float32).
const maxCells = 1 << 31

// chunkCells is the number of cells converted per buffered write/read.
const chunkCells = 16 * 1024

var order = binary.LittleEndian

// Write encodes m as: int32 rows, int32 cols, rows·cols float32 (row-major),
// all little-endian.
func Write(w io.Writer, m *matrix.Dense) error {
	if err := matrix.ValidateNotNil(m); err != nil {
		return fmt.Errorf("matrixio: Write: %w", err)
	}
	r, c := m.Shape()

	return writeCells(w, r, c, m.Raw())
}

// Read decodes a matrix written by Write under the default numeric policy.
// Errors: ErrCorrupt, matrix.ErrNaNInf / matrix.ErrNegative.
func Read(r io.Reader) (*matrix.Dense, error) { return read(r, true) }

func writeCells(w io.Writer, rows, cols int, cells []float32) error {
	if rows > math.MaxInt32 || cols > math.MaxInt32 {
		return fmt.Errorf("matrixio: %dx%d does not fit an int32 header: %w", rows, cols, matrix.ErrInvalidDimensions)
	}
	bw := bufio.NewWriter(w)
	var hdr [8]byte
	order.PutUint32(hdr[0:], uint32(rows))
	order.PutUint32(hdr[4:], uint32(cols))
	if _, err := bw.Write(hdr[:]); err != nil {
		return fmt.Errorf("matrixio: header: %w", err)
	}

	buf := make([]byte, 4*chunkCells)
	for len(cells) > 0 {
		k := min(len(cells), chunkCells)
		for i, v := range cells[:k] {
			order.PutUint32(buf[4*i:], math.Float32bits(v))
		}
		if _, err := bw.Write(buf[:4*k]); err != nil {
			return fmt.Errorf("matrixio: cells: %w", err)
		}
		cells = cells[k:]
	}

	return bw.Flush()
}

// read decodes header and cells; checked selects the matrix numeric policy.
func read(r io.Reader, checked bool) (*matrix.Dense, error) {
	br := bufio.NewReader(r)
	var hdr [8]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	rows := int(int32(order.Uint32(hdr[0:])))
	cols := int(int32(order.Uint32(hdr[4:])))
	if rows <= 0 || cols <= 0 || int64(rows)*int64(cols) > maxCells {
		return nil, fmt.Errorf("%w: header %dx%d", ErrCorrupt, rows, cols)
	}

	cells := make([]float32, rows*cols)
	buf := make([]byte, 4*chunkCells)
	for off := 0; off < len(cells); {
		k := min(len(cells)-off, chunkCells)
		if _, err := io.ReadFull(br, buf[:4*k]); err != nil {
			return nil, fmt.Errorf("%w: cell %d of %d: %v", ErrCorrupt, off, len(cells), err)
		}
		for i := 0; i < k; i++ {
			cells[off+i] = math.Float32frombits(order.Uint32(buf[4*i:]))
		}
		off += k
	}

	if !checked {
		return matrix.NewDenseUnchecked(rows, cols, cells)
	}
	m, err := matrix.NewDenseFrom(rows, cols, cells)
	if err != nil {
		return nil, fmt.Errorf("matrixio: %w", err)
	}

	return m, nil
}
