// SPDX-License-Identifier: MIT
package balance_test

import (
	"math"
	"sync"
	"testing"

	"github.com/katalvlaran/gravcal/balance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConstraintSet_Validation(t *testing.T) {
	_, err := balance.NewConstraintSet(nil)
	assert.ErrorIs(t, err, balance.ErrBadVector)

	_, err = balance.NewConstraintSet([]float64{1, -1})
	assert.ErrorIs(t, err, balance.ErrBadVector)

	_, err = balance.NewConstraintSet([]float64{math.NaN()})
	assert.ErrorIs(t, err, balance.ErrBadVector)

	cs, err := balance.NewConstraintSet([]float64{math.Inf(1), 0, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, cs.Len())
	assert.Nil(t, cs.Attraction())
}

func TestConstraintSet_CapacityIsCopied(t *testing.T) {
	capacity := []float64{1, 2}
	cs, err := balance.NewConstraintSet(capacity)
	require.NoError(t, err)

	capacity[0] = 99
	got := cs.Capacity()
	got[1] = 99
	assert.Equal(t, []float64{1, 2}, cs.Capacity())
}

func TestNewConstraintSetWithAttraction(t *testing.T) {
	cs, err := balance.NewConstraintSetWithAttraction([]float64{1, 2}, []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, cs.Attraction())

	_, err = balance.NewConstraintSetWithAttraction([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, balance.ErrBadVector)
}

func TestConstraintSet_WriteBack(t *testing.T) {
	cs, err := balance.NewConstraintSet([]float64{1, 2, 3})
	require.NoError(t, err)

	assert.ErrorIs(t, cs.WriteBack([]float64{1}, nil), balance.ErrBadVector)
	require.NoError(t, cs.WriteBack([]float64{1, 2, 0}, []int{0}))
	assert.Equal(t, []float64{1, 2, 0}, cs.Attraction())
	assert.Equal(t, []int{0}, cs.Clamped())
}

func TestConstraintSet_ConcurrentWriteBack(t *testing.T) {
	cs, err := balance.NewConstraintSet([]float64{math.Inf(1), math.Inf(1)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for k := 0; k < 16; k++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			_ = cs.WriteBack([]float64{v, v}, nil)
			_ = cs.Attraction()
		}(float64(k))
	}
	wg.Wait()

	got := cs.Attraction()
	require.Len(t, got, 2)
	assert.Equal(t, got[0], got[1], "a write-back is never torn")
}
