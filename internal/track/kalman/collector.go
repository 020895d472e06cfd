package kalman

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/muonreco/muonreco/internal/monitoring"
	"github.com/muonreco/muonreco/internal/track/daf"
)

// Collector gathers hits from a pool around a trajectory. Every plane that
// holds a hit within the gate yields one multi-hit of equally weighted
// components.
type Collector struct {
	pool   map[daf.DetID][]*Hit
	planes []plane
	gate   float64
}

type plane struct {
	det daf.DetID
	z   float64
}

// NewCollector indexes pool by plane. gate is the acceptance in standard
// deviations of the residual. A plane keeps only the hits measuring the same
// axes as its first hit.
func NewCollector(pool []*Hit, gate float64) *Collector {
	c := &Collector{pool: make(map[daf.DetID][]*Hit), gate: gate}
	for _, h := range pool {
		hits, seen := c.pool[h.det]
		if !seen {
			c.planes = append(c.planes, plane{det: h.det, z: h.z})
		} else if !h.sameAxes(hits[0]) {
			monitoring.Opsf("kalman: %v skipped, plane %d measures other axes", h, h.det)
			continue
		}
		c.pool[h.det] = append(hits, h)
	}
	sort.SliceStable(c.planes, func(i, j int) bool { return c.planes[i].z < c.planes[j].z })
	return c
}

// Collect implements daf.Collector. Planes are visited in the direction of
// the trajectory; the reference state is the trajectory's first smoothed
// state transported to each plane.
func (c *Collector) Collect(t daf.Trajectory) []daf.Measurement {
	if len(t.Measurements) == 0 || !t.First().Updated.Valid() {
		return nil
	}
	ref := t.First().Updated

	order := make([]plane, len(c.planes))
	copy(order, c.planes)
	if t.Direction() == daf.OppositeToMomentum {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	var out []daf.Measurement
	for _, p := range order {
		s := propagate(ref, p.z)
		var gated []*Hit
		for _, h := range c.pool[p.det] {
			if c.inGate(h, s) {
				gated = append(gated, h)
			}
		}
		if len(gated) == 0 {
			continue
		}
		out = append(out, daf.Measurement{Hit: NewMultiHit(gated), Predicted: s, Updated: s})
	}
	return out
}

// inGate compares the residual chi2 against gate^2 using the full residual
// covariance H P H^T + V.
func (c *Collector) inGate(h *Hit, s daf.State) bool {
	H, m, V := h.projection()
	var hp, cov, inv mat.Dense
	hp.Mul(H, s.Cov)
	cov.Mul(&hp, H.T())
	cov.Add(&cov, V)
	if err := inv.Inverse(&cov); err != nil {
		return false
	}
	r := mat.NewVecDense(m.Len(), nil)
	r.MulVec(H, s.Params)
	r.SubVec(m, r)
	var ir mat.VecDense
	ir.MulVec(&inv, r)
	return mat.Dot(r, &ir) <= c.gate*c.gate
}
