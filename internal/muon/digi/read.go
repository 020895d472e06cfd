package digi

import (
	"encoding/json"
	"fmt"
	"io"
)

// ReadEvents decodes a JSON array of events.
func ReadEvents(r io.Reader) ([]Event, error) {
	var events []Event
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// Counts reports how many primitives of each subsystem the event holds.
func (e Event) Counts() (dt, csc, rpc int) {
	dt = len(e.DTPhi)
	for _, ch := range e.CSC {
		csc += len(ch.LCTs)
	}
	for _, roll := range e.RPC {
		rpc += len(roll.Strips)
	}
	return dt, csc, rpc
}
