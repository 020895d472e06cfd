package omtf

import (
	"math"

	"github.com/muonreco/muonreco/internal/muon/detid"
	"github.com/muonreco/muonreco/internal/muon/digi"
)

// Eta is expressed in integer units of etaUnitsPerRange per etaRange.
const (
	etaRange          = 2.61
	etaUnitsPerRange  = 240
	dtPhiUnitsPerRad  = 4096
	processorPhiShift = math.Pi / 12 // processor 0 starts 15 degrees past phi = 0
)

// CSCEtaCut is the largest |eta| (in eta units) accepted from CSC. The nominal
// overlap region ends at 1.24; cutting there loses efficiency at the edge, so
// the cut sits one eta bin higher at 1.26.
const CSCEtaCut = 1.26 / etaRange * etaUnitsPerRange

// EtaUnits converts pseudorapidity to integer eta units.
func EtaUnits(eta float64) int {
	return int(math.Round(eta / etaRange * etaUnitsPerRange))
}

// AngleConverter turns raw primitives into processor-local phi and global
// eta, both in integer units. Implementations depend on the detector
// geometry of the run. A phi >= NPhiBins means "no measurement".
type AngleConverter interface {
	ProcessorPhiDT(processor int, o Orientation, d digi.DTPhi) int
	ProcessorPhiCSC(processor int, o Orientation, id detid.CSC, lct digi.CSCLCT) int
	ProcessorPhiRPC(processor int, o Orientation, id detid.RPC, strip digi.RPC) int
	GlobalEtaDT(id detid.DT, d digi.DTPhi, theta []digi.DTTheta) int
	GlobalEtaCSC(id detid.CSC, lct digi.CSCLCT) int
	GlobalEtaRPC(id detid.RPC, strip digi.RPC) int
}

// ChamberGeometry is a flat strip model of one chamber or roll.
type ChamberGeometry struct {
	Phi0     float64 `json:"phi0"`      // global phi (rad) of strip 0
	Pitch    float64 `json:"pitch"`     // rad per strip (half-strip for CSC)
	Eta      float64 `json:"eta"`       // eta at the reference point
	EtaPitch float64 `json:"eta_pitch"` // eta step per DT theta group or CSC wire group
}

// TableConverter is an AngleConverter driven by a static per-chamber table.
// DT phi is computed from the sector number; CSC and RPC use the table, and
// chambers missing from it produce no measurement. The orientation does not
// change the processor phi convention.
type TableConverter struct {
	nPhiBins    int
	nProcessors int
	chambers    map[detid.ID]ChamberGeometry
}

// NewTableConverter copies chambers and returns a converter for t's binning.
// CSC entries are keyed by the chamber id (layer 0), RPC entries by roll id,
// DT entries (eta only) by chamber id.
func NewTableConverter(t *Tables, chambers map[detid.ID]ChamberGeometry) *TableConverter {
	c := &TableConverter{
		nPhiBins:    t.NPhiBins(),
		nProcessors: t.NProcessors(),
		chambers:    make(map[detid.ID]ChamberGeometry, len(chambers)),
	}
	for k, v := range chambers {
		c.chambers[k] = v
	}
	return c
}

// processorPhi converts a global angle in radians to bins relative to the
// processor's lower edge, wrapped into [-nPhiBins/2, nPhiBins/2).
func (c *TableConverter) processorPhi(processor int, globalRad float64) int {
	offset := float64(processor)*2*math.Pi/float64(c.nProcessors) + processorPhiShift
	bins := int(math.Round((globalRad - offset) / (2 * math.Pi) * float64(c.nPhiBins)))
	half := c.nPhiBins / 2
	bins = ((bins+half)%c.nPhiBins+c.nPhiBins)%c.nPhiBins - half
	return bins
}

// ProcessorPhiDT implements AngleConverter.
func (c *TableConverter) ProcessorPhiDT(processor int, _ Orientation, d digi.DTPhi) int {
	global := float64(d.Sector)*math.Pi/6 + float64(d.Phi)/dtPhiUnitsPerRad
	return c.processorPhi(processor, global)
}

// ProcessorPhiCSC implements AngleConverter.
func (c *TableConverter) ProcessorPhiCSC(processor int, _ Orientation, id detid.CSC, lct digi.CSCLCT) int {
	id.Layer = 0
	g, ok := c.chambers[id.ID()]
	if !ok {
		return c.nPhiBins
	}
	return c.processorPhi(processor, g.Phi0+float64(lct.HalfStrip)*g.Pitch)
}

// ProcessorPhiRPC implements AngleConverter.
func (c *TableConverter) ProcessorPhiRPC(processor int, _ Orientation, id detid.RPC, strip digi.RPC) int {
	g, ok := c.chambers[id.ID()]
	if !ok {
		return c.nPhiBins
	}
	return c.processorPhi(processor, g.Phi0+float64(strip.Strip)*g.Pitch)
}

// GlobalEtaDT implements AngleConverter. The first fired theta group of the
// same chamber at BX 0 refines the chamber eta; without one the chamber
// reference eta is used.
func (c *TableConverter) GlobalEtaDT(id detid.DT, d digi.DTPhi, theta []digi.DTTheta) int {
	g, ok := c.chambers[id.ID()]
	if !ok {
		return 0
	}
	eta := g.Eta
	for _, th := range theta {
		if th.BX != 0 || th.Wheel != d.Wheel || th.Station != d.Station || th.Sector != d.Sector {
			continue
		}
		for i, fired := range th.Positions {
			if fired != 0 {
				eta += float64(i-digi.DTThetaPositions/2) * g.EtaPitch
				return EtaUnits(eta)
			}
		}
	}
	return EtaUnits(eta)
}

// GlobalEtaCSC implements AngleConverter.
func (c *TableConverter) GlobalEtaCSC(id detid.CSC, lct digi.CSCLCT) int {
	id.Layer = 0
	g, ok := c.chambers[id.ID()]
	if !ok {
		return 0
	}
	return EtaUnits(g.Eta + float64(lct.WireGroup)*g.EtaPitch)
}

// GlobalEtaRPC implements AngleConverter.
func (c *TableConverter) GlobalEtaRPC(id detid.RPC, _ digi.RPC) int {
	g, ok := c.chambers[id.ID()]
	if !ok {
		return 0
	}
	return EtaUnits(g.Eta)
}
