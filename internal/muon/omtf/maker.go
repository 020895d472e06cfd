package omtf

import (
	"math"

	"github.com/muonreco/muonreco/internal/monitoring"
	"github.com/muonreco/muonreco/internal/muon/detid"
	"github.com/muonreco/muonreco/internal/muon/digi"
)

// Trigger primitive quality gates.
const (
	dtMinCode    = 4 // correlated and double-layer DT segments only
	cscCentralBX = 6
)

// InputMaker fills an Input from raw primitives for one processor at a time.
// The Input returned by Build is reused by the next call; use Clone to keep it.
type InputMaker struct {
	tables *Tables
	conv   AngleConverter
	input  *Input
}

// NewInputMaker creates a maker over shared tables and an angle converter.
func NewInputMaker(t *Tables, conv AngleConverter) *InputMaker {
	return &InputMaker{
		tables: t,
		conv:   conv,
		input:  NewInput(t.NLayers(), t.NInputs(), t.NPhiBins()),
	}
}

// Tables returns the tables the maker was built with.
func (m *InputMaker) Tables() *Tables { return m.tables }

// Build clears the maker's Input and fills it from ev for one processor.
func (m *InputMaker) Build(ev digi.Event, processor int, o Orientation) *Input {
	m.input.Clear()

	m.processDT(ev.DTPhi, ev.DTTheta, processor, o)
	m.processCSC(ev.CSC, processor, o)
	m.processRPC(ev.RPC, processor, o)

	return m.input
}

// BuildAll returns an independent snapshot for every processor.
func (m *InputMaker) BuildAll(ev digi.Event, o Orientation) []*Input {
	out := make([]*Input, m.tables.NProcessors())
	for p := range out {
		out[p] = m.Build(ev, p, o).Clone()
	}
	return out
}

// slotFor resolves the logic layer and input slot of an accepted chamber.
func (m *InputMaker) slotFor(id detid.ID, processor int, o Orientation) (layer, slot int, ok bool) {
	layer, ok = m.tables.logicLayerFor(id)
	if !ok {
		return 0, 0, false
	}
	slot, err := m.tables.InputNumber(id, processor, o)
	if err != nil {
		monitoring.Opsf("omtf: accepted hit has no input slot: %v", err)
		return 0, 0, false
	}
	return layer, slot, true
}

func (m *InputMaker) add(layer, slot, phi, eta int) {
	if !m.input.AddLayerHit(layer, slot, phi, eta) && phi < m.tables.NPhiBins() {
		monitoring.Opsf("omtf: layer %d input %d outside the input grid", layer, slot)
	}
}

func (m *InputMaker) processDT(phiDigis []digi.DTPhi, thetaDigis []digi.DTTheta, processor int, o Orientation) {
	if phiDigis == nil {
		return
	}
	for _, d := range phiDigis {
		chamber := d.ChamberID()
		id := chamber.ID()
		if !m.tables.Accept(id, processor, o) {
			continue
		}
		// Only the first track of the trigger server, in time, with a
		// correlated or double-layer segment.
		if d.BX != 0 || d.BxCnt != 0 || d.Ts2Tag != 0 || d.Code < dtMinCode {
			continue
		}
		layer, slot, ok := m.slotFor(id, processor, o)
		if !ok {
			continue
		}
		phi := m.conv.ProcessorPhiDT(processor, o, d)
		eta := m.conv.GlobalEtaDT(chamber, d, thetaDigis)
		m.add(layer, slot, phi, eta)
		m.add(layer+1, slot, d.PhiB, eta)
	}
}

func (m *InputMaker) processCSC(chambers []digi.CSCChamber, processor int, o Orientation) {
	if chambers == nil {
		return
	}
	for _, ch := range chambers {
		if ch.ID.Subsystem() != detid.SubsystemCSC {
			monitoring.Opsf("omtf: non-CSC id %s in CSC collection", ch.ID)
			continue
		}
		if !m.tables.Accept(ch.ID, processor, o) {
			continue
		}
		csc := detid.CSCFromID(ch.ID)
		for _, lct := range ch.LCTs {
			if lct.BX != cscCentralBX {
				continue
			}
			layer, slot, ok := m.slotFor(ch.ID, processor, o)
			if !ok {
				continue
			}
			phi := m.conv.ProcessorPhiCSC(processor, o, csc, lct)
			eta := m.conv.GlobalEtaCSC(csc, lct)
			if math.Abs(float64(eta)) > CSCEtaCut {
				continue
			}
			m.add(layer, slot, phi, eta)
		}
	}
}

func (m *InputMaker) processRPC(rolls []digi.RPCRoll, processor int, o Orientation) {
	if rolls == nil {
		return
	}
	nPhiBins := m.tables.NPhiBins()
	for _, roll := range rolls {
		if roll.ID.Subsystem() != detid.SubsystemRPC {
			monitoring.Opsf("omtf: non-RPC id %s in RPC collection", roll.ID)
			continue
		}
		if !m.tables.Accept(roll.ID, processor, o) {
			continue
		}
		layer, slot, ok := m.slotFor(roll.ID, processor, o)
		if !ok {
			continue
		}
		rpc := detid.RPCFromID(roll.ID)
		for _, cl := range ClusterStrips(roll.Strips) {
			phi1 := m.conv.ProcessorPhiRPC(processor, o, rpc, cl.First)
			phi2 := m.conv.ProcessorPhiRPC(processor, o, rpc, cl.Last)
			if phi1 >= nPhiBins || phi2 >= nPhiBins {
				continue
			}
			phi := (phi1 + phi2) / 2
			eta := m.conv.GlobalEtaRPC(rpc, cl.First)
			m.add(layer, slot, phi, eta)
			if monitoring.TraceEnabled() {
				monitoring.Tracef("omtf: RPC cluster %s strips %d-%d phi %d eta %d layer %d input %d",
					rpc, cl.First.Strip, cl.Last.Strip, phi, eta, layer, slot)
			}
		}
	}
}
