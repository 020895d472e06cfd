// Package detid packs and unpacks muon detector identifiers.
//
// An ID is a uint32. The top nibble holds the detector (Muon = 2), bits
// 25-27 the subsystem (DT = 1, CSC = 2, RPC = 3). The lower 25 bits are
// subsystem specific:
//
//	DT   chamber: wheel+3 at bit 15 (3 bits), sector at bit 18 (4 bits), station at bit 22 (3 bits)
//	CSC  chamber: layer at bit 0 (3), chamber at bit 3 (6), ring at bit 9 (3), station at bit 12 (3), endcap at bit 15 (2)
//	RPC  roll:    region+1 at bit 0 (2), ring at bit 2 (3, barrel stored as wheel+3), station-1 at bit 5 (2),
//	              sector-1 at bit 7 (4), layer-1 at bit 11 (1), subsector-1 at bit 12 (3), roll at bit 15 (3)
package detid

import "fmt"

// ID is a packed detector identifier.
type ID uint32

// Detector tags.
const (
	DetMuon = 2
)

// Subsystem identifies the muon subdetector an ID belongs to.
type Subsystem int

const (
	SubsystemUnknown Subsystem = 0
	SubsystemDT      Subsystem = 1
	SubsystemCSC     Subsystem = 2
	SubsystemRPC     Subsystem = 3
)

func (s Subsystem) String() string {
	switch s {
	case SubsystemDT:
		return "DT"
	case SubsystemCSC:
		return "CSC"
	case SubsystemRPC:
		return "RPC"
	}
	return "unknown"
}

const (
	detStartBit    = 28
	detMask        = 0xF
	subdetStartBit = 25
	subdetMask     = 0x7
)

func header(sub Subsystem) uint32 {
	return uint32(DetMuon)<<detStartBit | uint32(sub)<<subdetStartBit
}

func field(id ID, start, mask uint32) int {
	return int((uint32(id) >> start) & mask)
}

// Det returns the detector tag.
func (id ID) Det() int { return field(id, detStartBit, detMask) }

// Subsystem returns the subsystem tag, or SubsystemUnknown when the ID is
// not a muon ID or the tag is not one of DT, CSC, RPC.
func (id ID) Subsystem() Subsystem {
	if id.Det() != DetMuon {
		return SubsystemUnknown
	}
	switch s := Subsystem(field(id, subdetStartBit, subdetMask)); s {
	case SubsystemDT, SubsystemCSC, SubsystemRPC:
		return s
	}
	return SubsystemUnknown
}

func (id ID) String() string {
	switch id.Subsystem() {
	case SubsystemDT:
		return DTFromID(id).String()
	case SubsystemCSC:
		return CSCFromID(id).String()
	case SubsystemRPC:
		return RPCFromID(id).String()
	}
	return fmt.Sprintf("unknown(0x%08x)", uint32(id))
}

// DT chamber bit layout.
const (
	dtWheelStartBit   = 15
	dtWheelMask       = 0x7
	dtSectorStartBit  = 18
	dtSectorMask      = 0xF
	dtStationStartBit = 22
	dtStationMask     = 0x7
	dtMinWheel        = -2
)

// DT is a drift-tube chamber identifier.
type DT struct {
	Wheel   int // -2..2
	Station int // 1..4
	Sector  int // 1..14
}

// ID packs the chamber into an ID.
func (d DT) ID() ID {
	v := header(SubsystemDT)
	v |= uint32(d.Wheel-dtMinWheel+1) & dtWheelMask << dtWheelStartBit
	v |= uint32(d.Sector) & dtSectorMask << dtSectorStartBit
	v |= uint32(d.Station) & dtStationMask << dtStationStartBit
	return ID(v)
}

// DTFromID unpacks a DT chamber. The caller checks the subsystem.
func DTFromID(id ID) DT {
	return DT{
		Wheel:   field(id, dtWheelStartBit, dtWheelMask) + dtMinWheel - 1,
		Station: field(id, dtStationStartBit, dtStationMask),
		Sector:  field(id, dtSectorStartBit, dtSectorMask),
	}
}

func (d DT) String() string {
	return fmt.Sprintf("DT(wh=%d st=%d sec=%d)", d.Wheel, d.Station, d.Sector)
}

// CSC bit layout.
const (
	cscLayerStartBit   = 0
	cscLayerMask       = 0x7
	cscChamberStartBit = 3
	cscChamberMask     = 0x3F
	cscRingStartBit    = 9
	cscRingMask        = 0x7
	cscStationStartBit = 12
	cscStationMask     = 0x7
	cscEndcapStartBit  = 15
	cscEndcapMask      = 0x3
)

// CSC is a cathode strip chamber identifier. Layer 0 means the whole chamber.
type CSC struct {
	Endcap  int // 1 = positive z, 2 = negative z
	Station int // 1..4
	Ring    int // 1..4
	Chamber int // 1..36
	Layer   int // 0..6
}

// ID packs the chamber into an ID.
func (c CSC) ID() ID {
	v := header(SubsystemCSC)
	v |= uint32(c.Layer) & cscLayerMask << cscLayerStartBit
	v |= uint32(c.Chamber) & cscChamberMask << cscChamberStartBit
	v |= uint32(c.Ring) & cscRingMask << cscRingStartBit
	v |= uint32(c.Station) & cscStationMask << cscStationStartBit
	v |= uint32(c.Endcap) & cscEndcapMask << cscEndcapStartBit
	return ID(v)
}

// CSCFromID unpacks a CSC identifier.
func CSCFromID(id ID) CSC {
	return CSC{
		Endcap:  field(id, cscEndcapStartBit, cscEndcapMask),
		Station: field(id, cscStationStartBit, cscStationMask),
		Ring:    field(id, cscRingStartBit, cscRingMask),
		Chamber: field(id, cscChamberStartBit, cscChamberMask),
		Layer:   field(id, cscLayerStartBit, cscLayerMask),
	}
}

func (c CSC) String() string {
	return fmt.Sprintf("CSC(ec=%d st=%d ring=%d ch=%d)", c.Endcap, c.Station, c.Ring, c.Chamber)
}

// RPC bit layout.
const (
	rpcRegionStartBit    = 0
	rpcRegionMask        = 0x3
	rpcRingStartBit      = 2
	rpcRingMask          = 0x7
	rpcStationStartBit   = 5
	rpcStationMask       = 0x3
	rpcSectorStartBit    = 7
	rpcSectorMask        = 0xF
	rpcLayerStartBit     = 11
	rpcLayerMask         = 0x1
	rpcSubsectorStartBit = 12
	rpcSubsectorMask     = 0x7
	rpcRollStartBit      = 15
	rpcRollMask          = 0x7
	rpcRingBarrelOffset  = 3
)

// RPC is a resistive plate chamber roll identifier. In the barrel Ring holds
// the wheel (-2..2); in the endcaps it is the ring (1..3).
type RPC struct {
	Region    int // -1, 0 (barrel), 1
	Ring      int
	Station   int // 1..4
	Sector    int // 1..12 barrel, 1..6 endcap
	Layer     int // 1..2
	Subsector int // 1..6
	Roll      int // 0..4
}

// ID packs the roll into an ID.
func (r RPC) ID() ID {
	ring := r.Ring
	if r.Region == 0 {
		ring += rpcRingBarrelOffset
	}
	v := header(SubsystemRPC)
	v |= uint32(r.Region+1) & rpcRegionMask << rpcRegionStartBit
	v |= uint32(ring) & rpcRingMask << rpcRingStartBit
	v |= uint32(r.Station-1) & rpcStationMask << rpcStationStartBit
	v |= uint32(r.Sector-1) & rpcSectorMask << rpcSectorStartBit
	v |= uint32(r.Layer-1) & rpcLayerMask << rpcLayerStartBit
	v |= uint32(r.Subsector-1) & rpcSubsectorMask << rpcSubsectorStartBit
	v |= uint32(r.Roll) & rpcRollMask << rpcRollStartBit
	return ID(v)
}

// RPCFromID unpacks an RPC roll identifier.
func RPCFromID(id ID) RPC {
	r := RPC{
		Region:    field(id, rpcRegionStartBit, rpcRegionMask) - 1,
		Ring:      field(id, rpcRingStartBit, rpcRingMask),
		Station:   field(id, rpcStationStartBit, rpcStationMask) + 1,
		Sector:    field(id, rpcSectorStartBit, rpcSectorMask) + 1,
		Layer:     field(id, rpcLayerStartBit, rpcLayerMask) + 1,
		Subsector: field(id, rpcSubsectorStartBit, rpcSubsectorMask) + 1,
		Roll:      field(id, rpcRollStartBit, rpcRollMask),
	}
	if r.Region == 0 {
		r.Ring -= rpcRingBarrelOffset
	}
	return r
}

// Chamber returns the identifier with the roll cleared, so all rolls of one
// chamber compare equal.
func (r RPC) Chamber() RPC {
	r.Roll = 0
	return r
}

func (r RPC) String() string {
	return fmt.Sprintf("RPC(re=%d ring=%d st=%d sec=%d lay=%d sub=%d roll=%d)",
		r.Region, r.Ring, r.Station, r.Sector, r.Layer, r.Subsector, r.Roll)
}
