package core

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBoxSpace(t *testing.T) {
	_, err := NewBoxSpace([]float64{-1, -1}, []float64{1})
	assert.Error(t, err)

	_, err = NewBoxSpace([]float64{2}, []float64{1})
	assert.Error(t, err)

	space, err := NewBoxSpace([]float64{-1, 0}, []float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 2, space.Dim())
}

func TestActionSpace_Clip(t *testing.T) {
	space := UnitBox(3)

	assert.Equal(t, []float64{1, -1, 0.25}, space.Clip([]float64{4, -9, 0.25}))
	assert.Equal(t, []float64{0, 0, 0}, space.Clip([]float64{math.NaN(), 0, 0}))
	assert.True(t, space.Contains([]float64{1, -1, 0}))
	assert.False(t, space.Contains([]float64{1, -1}))
	assert.False(t, space.Contains([]float64{1.1, 0, 0}))
}

func TestActionSpace_Sample(t *testing.T) {
	space, err := NewBoxSpace([]float64{-1, 3}, []float64{1, 4})
	require.NoError(t, err)
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 100; i++ {
		assert.True(t, space.Contains(space.Sample(r)))
	}
}

func TestActionSpace_Grid(t *testing.T) {
	actions := UnitBox(3).Grid(3)
	require.Len(t, actions, 27)

	hashes := make(map[string]bool)
	for _, a := range actions {
		hashes[a.Hash()] = true
	}
	assert.Len(t, hashes, 27)
	assert.Equal(t, []float64{-1, -1, -1}, actions[0].Values())
	assert.Equal(t, []float64{1, 1, 1}, actions[26].Values())
	assert.True(t, hashes[NewContinuousAction(0, 0, 0).Hash()])
}

func TestContinuousAction_ValuesIsACopy(t *testing.T) {
	a := NewContinuousAction(0.5, -0.5)
	v := a.Values()
	v[0] = 9

	assert.Equal(t, 0.5, a.Values()[0])
	assert.Equal(t, "[0.500,-0.500]", a.Hash())
}
