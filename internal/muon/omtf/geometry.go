package omtf

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/muonreco/muonreco/internal/muon/detid"
)

// geometryEntry is one record of a geometry file.
type geometryEntry struct {
	ID detid.ID `json:"id"`
	ChamberGeometry
}

// ReadGeometry decodes a JSON array of chamber records, each an "id" plus
// the ChamberGeometry fields, for use with NewTableConverter.
func ReadGeometry(r io.Reader) (map[detid.ID]ChamberGeometry, error) {
	var entries []geometryEntry
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}
	out := make(map[detid.ID]ChamberGeometry, len(entries))
	for i, e := range entries {
		if e.ID.Subsystem() == detid.SubsystemUnknown {
			return nil, fmt.Errorf("geometry entry %d: %w: %d", i, ErrUnknownSubsystem, uint32(e.ID))
		}
		if _, dup := out[e.ID]; dup {
			return nil, fmt.Errorf("geometry entry %d: duplicate chamber %s", i, e.ID)
		}
		out[e.ID] = e.ChamberGeometry
	}
	return out, nil
}
