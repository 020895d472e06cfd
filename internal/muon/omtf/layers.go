package omtf

import "github.com/muonreco/muonreco/internal/muon/detid"

// HwNumber returns the hardware layer number of a chamber:
//
//	DT   100*station + 1 (the bending angle goes to the next logic layer)
//	CSC  600 + station, +10 for ME1/2
//	RPC  500 + n; barrel n = 2*(station-1)+layer for stations 1-2 and
//	     station+2 above, endcap n = 10+station
//
// The second result is false for unknown subsystems.
func HwNumber(id detid.ID) (int, bool) {
	switch id.Subsystem() {
	case detid.SubsystemDT:
		return 100*detid.DTFromID(id).Station + 1, true
	case detid.SubsystemCSC:
		c := detid.CSCFromID(id)
		n := 600 + c.Station
		if c.Station == 1 && c.Ring == 2 {
			n += 10
		}
		return n, true
	case detid.SubsystemRPC:
		r := detid.RPCFromID(id)
		var n int
		if r.Region == 0 {
			if r.Station <= 2 {
				n = 2*(r.Station-1) + r.Layer
			} else {
				n = r.Station + 2
			}
		} else {
			n = 10 + r.Station
		}
		return 500 + n, true
	}
	return 0, false
}

// logicLayerFor resolves the logic layer of id, false when unmapped.
func (t *Tables) logicLayerFor(id detid.ID) (int, bool) {
	hw, ok := HwNumber(id)
	if !ok {
		return 0, false
	}
	return t.LogicLayer(hw)
}
