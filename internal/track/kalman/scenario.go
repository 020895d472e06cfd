package kalman

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/muonreco/muonreco/internal/track/daf"
)

// Scenario is a refit job read from a file: the plane geometry, the pool of
// hits the collector draws from, and the candidates to refit.
type Scenario struct {
	Geometry   Geometry
	Pool       []*Hit
	Candidates []daf.Candidate
}

type scenarioFile struct {
	Planes []struct {
		Det daf.DetID `json:"det"`
		Z   float64   `json:"z"`
	} `json:"planes"`
	Hits []struct {
		Det   daf.DetID `json:"det"`
		Axis  string    `json:"axis"` // "x", "y" or "xy"
		X     float64   `json:"x"`
		Y     float64   `json:"y"`
		Sigma float64   `json:"sigma"`
	} `json:"hits"`
	Candidates []struct {
		Direction string `json:"direction"` // "along" (default) or "opposite"
		Hits      []int  `json:"hits"`      // indices into hits
		Start     struct {
			Z         float64   `json:"z"`
			Params    []float64 `json:"params"`
			Variances []float64 `json:"variances"`
		} `json:"start"`
	} `json:"candidates"`
}

// ReadScenario decodes and validates a JSON scenario.
func ReadScenario(r io.Reader) (*Scenario, error) {
	var f scenarioFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	s := &Scenario{Geometry: make(Geometry, len(f.Planes))}
	for _, p := range f.Planes {
		s.Geometry[p.Det] = p.Z
	}

	axes := make(map[daf.DetID]string, len(f.Planes))
	for i, h := range f.Hits {
		z, ok := s.Geometry[h.Det]
		if !ok {
			return nil, fmt.Errorf("hit %d: unknown plane %d", i, h.Det)
		}
		axis := h.Axis
		if axis == "" {
			axis = "xy"
		}
		if prev, seen := axes[h.Det]; seen && prev != axis {
			return nil, fmt.Errorf("hit %d: axis %q on plane %d, which already holds %q hits", i, axis, h.Det, prev)
		}
		axes[h.Det] = axis
		if h.Sigma <= 0 {
			return nil, fmt.Errorf("hit %d: sigma must be positive, got %g", i, h.Sigma)
		}
		switch h.Axis {
		case "x":
			s.Pool = append(s.Pool, NewStripHit(h.Det, z, AxisX, h.X, h.Sigma))
		case "y":
			s.Pool = append(s.Pool, NewStripHit(h.Det, z, AxisY, h.Y, h.Sigma))
		case "xy", "":
			s.Pool = append(s.Pool, NewPixelHit(h.Det, z, h.X, h.Y, h.Sigma))
		default:
			return nil, fmt.Errorf("hit %d: unknown axis %q", i, h.Axis)
		}
	}

	for i, c := range f.Candidates {
		var dir daf.Direction
		switch c.Direction {
		case "along", "":
			dir = daf.AlongMomentum
		case "opposite":
			dir = daf.OppositeToMomentum
		default:
			return nil, fmt.Errorf("candidate %d: unknown direction %q", i, c.Direction)
		}
		if len(c.Start.Params) != daf.StateDim || len(c.Start.Variances) != daf.StateDim {
			return nil, fmt.Errorf("candidate %d: start needs %d params and variances", i, daf.StateDim)
		}
		cand := daf.Candidate{
			Seed:  daf.Seed{Direction: dir},
			Start: daf.NewState(c.Start.Z, c.Start.Params, c.Start.Variances),
		}
		for _, idx := range c.Hits {
			if idx < 0 || idx >= len(s.Pool) {
				return nil, fmt.Errorf("candidate %d: hit index %d out of range", i, idx)
			}
			cand.Hits = append(cand.Hits, s.Pool[idx])
		}
		s.Candidates = append(s.Candidates, cand)
	}
	return s, nil
}
