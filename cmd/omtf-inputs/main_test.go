package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonreco/muonreco/internal/muon/detid"
	"github.com/muonreco/muonreco/internal/testutil"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, nil, &out, &bytes.Buffer{}))
	assert.True(t, strings.HasPrefix(out.String(), "omtf-inputs "))
}

func TestRun_RequiresGeometry(t *testing.T) {
	err := run(nil, strings.NewReader("[]"), &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_BuildsInputs(t *testing.T) {
	rpc := detid.RPC{Region: 0, Ring: 2, Station: 1, Sector: 3, Layer: 1, Subsector: 1, Roll: 1}.ID()
	dt := detid.DT{Wheel: 2, Station: 1, Sector: 3}.ID()
	geom := testutil.WriteTempFile(t, "geom.json", fmt.Sprintf(
		`[{"id": %d, "phi0": 0.8, "pitch": 0.002, "eta": 0.95},
		  {"id": %d, "eta": 0.9}]`, uint32(rpc), uint32(dt)))
	events := fmt.Sprintf(`[{
		"dt_phi": [{"wheel": 2, "station": 1, "sector": 2, "code": 6, "phi": 100, "phi_b": 7}],
		"rpc": [{"id": %d, "strips": [{"strip": 4}, {"strip": 5}]}]
	}]`, uint32(rpc))

	var out bytes.Buffer
	args := []string{"-geometry", geom, "-processor", "0", "-pdf-ref-layer", "0"}
	require.NoError(t, run(args, strings.NewReader(events), &out, &bytes.Buffer{}))

	var got eventOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	require.Len(t, got.Processors, 1)
	p := got.Processors[0]
	assert.Equal(t, 0, p.Processor)

	// DT phi and bending on layers 0 and 1 at slot 2; RB1in roll 1 on
	// layer 10 at slot 4.
	slots := map[int]int{}
	for _, h := range p.Hits {
		slots[h.Layer] = h.Input
	}
	assert.Equal(t, map[int]int{0: 2, 1: 2, 10: 4}, slots)

	require.Len(t, p.PdfAddresses, 18)
	assert.Equal(t, 64, p.PdfAddresses[0][2])
}

func TestRun_BadOrientation(t *testing.T) {
	geom := testutil.WriteTempFile(t, "geom.json", "[]")
	err := run([]string{"-geometry", geom, "-orientation", "sideways"}, strings.NewReader("[]"), &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
}
