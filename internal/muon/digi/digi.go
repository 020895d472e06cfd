// Package digi holds the raw trigger primitives read by the input maker.
//
// All records are produced by upstream unpacking and are read-only here.
// A nil collection in an Event means the subsystem is disabled for the run.
package digi

import (
	"github.com/muonreco/muonreco/internal/muon/detid"
)

// DTPhi is a DT trigger-server phi primitive.
type DTPhi struct {
	Wheel   int `json:"wheel"`
	Station int `json:"station"`
	Sector  int `json:"sector"` // 0-based, the chamber id uses Sector+1
	BX      int `json:"bx"`
	BxCnt   int `json:"bx_cnt"`
	Ts2Tag  int `json:"ts2_tag"`
	Code    int `json:"code"`  // track quality, >= 4 means correlated/double-layer
	Phi     int `json:"phi"`   // local phi, 4096 units per radian
	PhiB    int `json:"phi_b"` // bending angle
}

// ChamberID returns the DT chamber the primitive belongs to.
func (d DTPhi) ChamberID() detid.DT {
	return detid.DT{Wheel: d.Wheel, Station: d.Station, Sector: d.Sector + 1}
}

// DTThetaPositions is the number of theta BTI groups per chamber.
const DTThetaPositions = 7

// DTTheta is a DT theta primitive: which of the seven theta groups fired.
type DTTheta struct {
	Wheel     int                   `json:"wheel"`
	Station   int                   `json:"station"`
	Sector    int                   `json:"sector"` // 0-based
	BX        int                   `json:"bx"`
	Positions [DTThetaPositions]int `json:"positions"`
	Qualities [DTThetaPositions]int `json:"qualities"`
}

// CSCLCT is a CSC correlated local charged track.
type CSCLCT struct {
	BX        int `json:"bx"` // central bunch crossing is 6
	Quality   int `json:"quality"`
	HalfStrip int `json:"half_strip"`
	WireGroup int `json:"wire_group"`
	Pattern   int `json:"pattern"`
	Bend      int `json:"bend"`
}

// CSCChamber groups the LCTs of one chamber.
type CSCChamber struct {
	ID   detid.ID `json:"id"`
	LCTs []CSCLCT `json:"lcts"`
}

// RPC is a single fired RPC strip.
type RPC struct {
	Strip int `json:"strip"`
	BX    int `json:"bx"`
}

// RPCRoll groups the fired strips of one roll.
type RPCRoll struct {
	ID     detid.ID `json:"id"`
	Strips []RPC    `json:"strips"`
}

// Event carries all subsystem collections for one bunch crossing. Each field
// may be nil.
type Event struct {
	DTPhi   []DTPhi      `json:"dt_phi"`
	DTTheta []DTTheta    `json:"dt_theta"`
	CSC     []CSCChamber `json:"csc"`
	RPC     []RPCRoll    `json:"rpc"`
}
