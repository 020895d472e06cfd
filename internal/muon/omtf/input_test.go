package omtf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInput_AddLayerHit(t *testing.T) {
	t.Parallel()
	in := NewInput(3, 4, 100)

	assert.True(t, in.AddLayerHit(1, 2, 40, 7))
	phi, ok := in.Phi(1, 2)
	assert.True(t, ok)
	assert.Equal(t, 40, phi)
	assert.Equal(t, 7, in.Eta(1, 2))

	// Later writes replace earlier ones.
	assert.True(t, in.AddLayerHit(1, 2, 41, 8))
	phi, _ = in.Phi(1, 2)
	assert.Equal(t, 41, phi)

	assert.False(t, in.AddLayerHit(3, 0, 1, 1), "layer past the grid")
	assert.False(t, in.AddLayerHit(0, 4, 1, 1), "input past the grid")
	assert.False(t, in.AddLayerHit(-1, 0, 1, 1))
	assert.False(t, in.AddLayerHit(0, 0, 100, 1), "phi marker is not a measurement")

	_, ok = in.Phi(0, 0)
	assert.False(t, ok)
	_, ok = in.Phi(9, 9)
	assert.False(t, ok)
	assert.Equal(t, 0, in.Eta(9, 9))
}

func TestInput_ClearAndHits(t *testing.T) {
	t.Parallel()
	in := NewInput(3, 4, 100)
	in.AddLayerHit(2, 0, 5, 1)
	in.AddLayerHit(0, 3, -6, 2)

	assert.Equal(t, []Hit{
		{Layer: 0, Input: 3, Phi: -6, Eta: 2},
		{Layer: 2, Input: 0, Phi: 5, Eta: 1},
	}, in.Hits())

	in.Clear()
	assert.Empty(t, in.Hits())
	assert.Equal(t, []int{100, 100, 100, 100}, in.LayerPhi(0))
}

func TestInput_CloneAndLayerPhiAreCopies(t *testing.T) {
	t.Parallel()
	in := NewInput(2, 2, 100)
	in.AddLayerHit(0, 0, 1, 1)

	c := in.Clone()
	row := in.LayerPhi(0)
	row[1] = 55
	in.AddLayerHit(0, 0, 2, 2)

	phi, ok := c.Phi(0, 0)
	require.True(t, ok)
	assert.Equal(t, 1, phi)
	_, ok = in.Phi(0, 1)
	assert.False(t, ok)
	assert.Equal(t, 2, c.NLayers())
	assert.Equal(t, 2, c.NInputs())
}
