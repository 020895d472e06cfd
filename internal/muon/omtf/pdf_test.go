package omtf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muonreco/muonreco/internal/config"
)

func TestAddressing_PerPhase(t *testing.T) {
	t.Parallel()
	tables := MustDefaultTables()

	match := tables.Addressing(config.PhaseMatching)
	build := tables.Addressing(config.PhasePatternBuild)

	assert.Equal(t, config.PhaseMatching, match.Phase())
	assert.Equal(t, 7, match.Bits())
	assert.Equal(t, 128, match.Size())
	assert.Equal(t, 14, build.Bits())
	assert.Equal(t, 16384, build.Size())
}

func TestAddressing_Address(t *testing.T) {
	t.Parallel()
	a := MustDefaultTables().Addressing(config.PhaseMatching)

	tests := []struct {
		delta, mean int
		want        int
		ok          bool
	}{
		{0, 0, 64, true},
		{10, 10, 64, true},
		{-64, 0, 0, true},
		{63, 0, 127, true},
		{64, 0, 0, false},
		{-65, 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := a.Address(tt.delta, tt.mean)
		assert.Equal(t, tt.ok, ok, "delta %d mean %d", tt.delta, tt.mean)
		assert.Equal(t, tt.want, got, "delta %d mean %d", tt.delta, tt.mean)
	}

	// The same distance fits the wider pattern-building PDF.
	wide := MustDefaultTables().Addressing(config.PhasePatternBuild)
	addr, ok := wide.Address(64, 0)
	assert.True(t, ok)
	assert.Equal(t, 8256, addr)
}

func TestInput_Addresses(t *testing.T) {
	t.Parallel()
	a := MustDefaultTables().Addressing(config.PhaseMatching)
	in := NewInput(2, 3, 5400)
	in.AddLayerHit(0, 0, 100, 0)
	in.AddLayerHit(0, 2, 400, 0)
	in.AddLayerHit(1, 1, 120, 0)

	got := in.Addresses(a, 100, []int{0})
	assert.Equal(t, [][]int{
		{64, -1, -1},
		{-1, 84, -1},
	}, got)
}
