package digi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonreco/muonreco/internal/muon/detid"
)

func TestChamberID(t *testing.T) {
	t.Parallel()
	d := DTPhi{Wheel: -2, Station: 3, Sector: 11}
	assert.Equal(t, detid.DT{Wheel: -2, Station: 3, Sector: 12}, d.ChamberID())
}

func TestReadEvents(t *testing.T) {
	t.Parallel()
	input := `[
  {"dt_phi": [{"wheel": 2, "station": 1, "sector": 2, "code": 6, "phi": 100, "phi_b": -20}],
   "csc": [{"id": 1, "lcts": [{"bx": 6, "half_strip": 10}, {"bx": 5}]}],
   "rpc": null},
  {}
]`
	events, err := ReadEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, events, 2)

	dt, csc, rpc := events[0].Counts()
	assert.Equal(t, 1, dt)
	assert.Equal(t, 2, csc)
	assert.Equal(t, 0, rpc)
	assert.Nil(t, events[0].RPC)
	assert.Nil(t, events[1].DTPhi)
	assert.Equal(t, -20, events[0].DTPhi[0].PhiB)
}

func TestReadEvents_Errors(t *testing.T) {
	t.Parallel()
	_, err := ReadEvents(strings.NewReader(`[{"unknown_field": 1}]`))
	assert.Error(t, err)

	_, err = ReadEvents(strings.NewReader(`not json`))
	assert.Error(t, err)
}
