// SPDX-License-Identifier: MIT
package model_test

import (
	"testing"

	"github.com/katalvlaran/gravcal/balance"
	"github.com/katalvlaran/gravcal/matrix"
	"github.com/katalvlaran/gravcal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(t *testing.T, n int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewSquare(n)
	require.NoError(t, err)

	return m
}

func mode(t *testing.T, name string, n int) model.Mode {
	return model.Mode{Name: name, TObs: square(t, n), Dis: square(t, n)}
}

func TestNewDataset(t *testing.T) {
	ds, err := model.NewDataset(mode(t, "road", 3), mode(t, "bus", 3), mode(t, "gbrail", 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"road", "bus", "gbrail"}, ds.Names())

	n, err := ds.Validate()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestValidate_Errors(t *testing.T) {
	bad := mode(t, "bus", 3)
	bad.Dis = square(t, 2)

	cs, err := balance.NewConstraintSet([]float64{1, 2})
	require.NoError(t, err)
	withCS := mode(t, "rail", 3)
	withCS.Constraints = cs

	for _, tc := range []struct {
		name  string
		modes []model.Mode
		want  error
	}{
		{"empty", nil, model.ErrEmptyDataset},
		{"duplicate", []model.Mode{mode(t, "road", 3), mode(t, "road", 3)}, model.ErrDuplicateMode},
		{"missing", []model.Mode{{Name: "road", TObs: square(t, 3)}}, model.ErrMissingMatrix},
		{"shape", []model.Mode{mode(t, "road", 3), bad}, matrix.ErrDimensionMismatch},
		{"constraints", []model.Mode{withCS}, matrix.ErrDimensionMismatch},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := model.NewDataset(tc.modes...)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	var nilDS *model.Dataset
	_, err = nilDS.Validate()
	assert.ErrorIs(t, err, model.ErrEmptyDataset)
}

func TestDimensionMismatchError(t *testing.T) {
	bad := mode(t, "bus", 3)
	bad.Dis = square(t, 2)
	_, err := model.NewDataset(mode(t, "road", 3), bad)

	var dm *model.DimensionMismatchError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, model.DimensionMismatchError{Mode: "bus", Matrix: "dis", Want: 3, Rows: 2, Cols: 2}, *dm)
	assert.Equal(t, `model: mode "bus" matrix dis is 2x2, want 3x3`, err.Error())
}
