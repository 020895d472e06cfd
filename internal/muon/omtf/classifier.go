package omtf

import (
	"errors"
	"fmt"

	"github.com/muonreco/muonreco/internal/monitoring"
	"github.com/muonreco/muonreco/internal/muon/detid"
)

var (
	// ErrUnknownSubsystem is returned for identifiers that are not DT, CSC or RPC.
	ErrUnknownSubsystem = errors.New("unknown detector subsystem")
	// ErrOutsideWindow is returned when a chamber maps outside the processor's input range.
	ErrOutsideWindow = errors.New("chamber outside processor input range")
	// ErrBadProcessor is returned for processor indices outside the configured range.
	ErrBadProcessor = errors.New("processor index out of range")
)

// Slots per sector on the input bus. Barrel RPC chambers are split into rolls
// and use four slots; everything else uses two.
const (
	slotsPerSector          = 2
	slotsPerSectorBarrelRPC = 4
)

// placement is where a chamber lands on a processor's input bus.
type placement struct {
	sector    int
	win       window
	perSector int
	roll      int
}

func (p placement) slot() int {
	return (p.sector-p.win.base(p.sector))*p.perSector + p.roll - 1
}

// place resolves the sector, window and roll offset for id. It does not apply
// the connection rules; see connected.
func (t *Tables) place(id detid.ID, processor int, o Orientation) (placement, error) {
	if !t.validProcessor(processor) {
		return placement{}, fmt.Errorf("%w: %d", ErrBadProcessor, processor)
	}
	p := placement{win: t.barrel[processor], perSector: slotsPerSector, roll: 1}

	switch id.Subsystem() {
	case detid.SubsystemRPC:
		r := detid.RPCFromID(id)
		if r.Region == 0 {
			p.sector = r.Sector
			p.perSector = slotsPerSectorBarrelRPC
			p.roll = r.Roll
			// Keep a common slot formula for all stations.
			if r.Station == 2 && r.Layer == 2 && r.Roll == 2 {
				p.roll = 1
			}
			if r.Station == 3 {
				p.roll = 1
			}
			// Rolls are not used for the barrel track finder.
			if o == BMTF {
				p.roll = 1
			}
		} else {
			p.sector = (r.Sector-1)*6 + r.Subsector
			p.win = t.endcap10[processor]
		}
	case detid.SubsystemDT:
		p.sector = detid.DTFromID(id).Sector
	case detid.SubsystemCSC:
		c := detid.CSCFromID(id)
		p.sector = c.Chamber
		p.win = t.endcap10[processor]
		if o.IsEMTF() && c.Station > 1 && c.Ring == 1 {
			p.win = t.endcap20[processor]
		}
	default:
		return placement{}, fmt.Errorf("%w: %s", ErrUnknownSubsystem, id)
	}
	if p.roll < 1 {
		p.roll = 1
	}
	if p.roll > p.perSector {
		p.roll = p.perSector
	}
	return p, nil
}

// connected applies the per-subsystem rules selecting which chambers are
// cabled to the given track finder.
func connected(id detid.ID, o Orientation) bool {
	switch id.Subsystem() {
	case detid.SubsystemRPC:
		return rpcConnected(detid.RPCFromID(id), o)
	case detid.SubsystemDT:
		return dtConnected(detid.DTFromID(id), o)
	case detid.SubsystemCSC:
		return cscConnected(detid.CSCFromID(id), o)
	}
	return false
}

// barrelRPCExcluded covers barrel rolls the overlap finder never reads.
func barrelRPCExcluded(r detid.RPC) bool {
	return r.Station == 4 ||
		(r.Station == 2 && r.Layer == 2 && r.Roll == 1) ||
		(r.Station == 3 && r.Roll == 1)
}

func rpcConnected(r detid.RPC, o Orientation) bool {
	switch o {
	case OMTFPos:
		if r.Region < 0 ||
			(r.Region == 0 && (r.Ring != 2 || barrelRPCExcluded(r))) ||
			(r.Region == 1 && (r.Station == 4 || r.Ring < 3)) {
			return false
		}
	case OMTFNeg:
		if r.Region > 0 ||
			(r.Region == 0 && (r.Ring != -2 || barrelRPCExcluded(r))) ||
			(r.Region == -1 && (r.Station == 4 || r.Ring < 3)) {
			return false
		}
	case BMTF:
		if r.Region != 0 {
			return false
		}
	case EMTFPos:
		if r.Region <= 0 || (r.Station == 1 && r.Ring == 3) {
			return false
		}
	case EMTFNeg:
		if r.Region >= 0 || (r.Station == 1 && r.Ring == 3) {
			return false
		}
	}
	return true
}

func dtConnected(d detid.DT, o Orientation) bool {
	switch o {
	case OMTFPos:
		return d.Wheel == 2
	case OMTFNeg:
		return d.Wheel == -2
	case EMTFPos, EMTFNeg:
		return false
	}
	return true
}

func cscConnected(c detid.CSC, o Orientation) bool {
	switch o {
	case OMTFPos:
		return c.Endcap != 2 && c.Ring != 1 && c.Station != 4
	case OMTFNeg:
		return c.Endcap != 1 && c.Ring != 1 && c.Station != 4
	case EMTFPos:
		return c.Endcap != 2 && !(c.Station == 1 && c.Ring == 3)
	case EMTFNeg:
		return c.Endcap != 1 && !(c.Station == 1 && c.Ring == 3)
	}
	return true
}

// Accept reports whether the chamber id feeds the given processor under
// orientation o. Unknown subsystems are logged and rejected.
func (t *Tables) Accept(id detid.ID, processor int, o Orientation) bool {
	p, err := t.place(id, processor, o)
	if err != nil {
		monitoring.Opsf("omtf: rejecting hit: %v", err)
		return false
	}
	if !connected(id, o) {
		return false
	}
	return p.win.contains(p.sector)
}

// InputNumber returns the input slot of id on the given processor. The result
// is in [0, NInputs) for every id that Accept admits.
func (t *Tables) InputNumber(id detid.ID, processor int, o Orientation) (int, error) {
	p, err := t.place(id, processor, o)
	if err != nil {
		return 0, err
	}
	slot := p.slot()
	if slot < 0 || slot >= t.nInputs {
		return slot, fmt.Errorf("%w: %s sector %d slot %d on processor %d", ErrOutsideWindow, id, p.sector, slot, processor)
	}
	return slot, nil
}
