// SPDX-License-Identifier: MIT

package matrix

// Operation tags for wrapped errors.
const (
	opScale     = "Scale"
	opZerosLike = "ZerosLike"
)

// Scale returns a new matrix α·m (element-wise). The receiver is not modified.
// Errors: ErrNaNInf / ErrNegative when α would produce an invalid cell under
// the receiver's numeric policy.
// Complexity: O(r*c).
func (m *Dense) Scale(alpha float32) (*Dense, error) {
	out := m.CloneDense()
	if err := out.Apply(func(_, _ int, v float32) float32 { return v * alpha }); err != nil {
		return nil, matrixErrorf(opScale, err)
	}

	return out, nil
}

// ZerosLike returns a new zero matrix with the same shape as m.
// Handy to preallocate output buffers in kernels.
func ZerosLike(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opZerosLike, err)
	}

	return NewDense(m.Rows(), m.Cols())
}
