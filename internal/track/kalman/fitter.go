package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/muonreco/muonreco/internal/monitoring"
	"github.com/muonreco/muonreco/internal/track/daf"
)

// Geometry maps detector planes to their z position.
type Geometry map[daf.DetID]float64

// Fitter is a Kalman filter over hits in the order given. Smoothed states
// are the final filtered state transported back to each plane, which is
// exact without process noise.
type Fitter struct {
	planes Geometry
}

// NewFitter creates a fitter. planes locates hits that carry no z of their
// own, such as daf.MissingHit.
func NewFitter(planes Geometry) *Fitter {
	g := make(Geometry, len(planes))
	for k, v := range planes {
		g[k] = v
	}
	return &Fitter{planes: g}
}

type zHit interface{ Z() float64 }

func (f *Fitter) planeZ(h daf.Hit) (float64, bool) {
	if zh, ok := h.(zHit); ok {
		return zh.Z(), true
	}
	z, ok := f.planes[h.Det()]
	return z, ok
}

// Fit implements daf.Fitter. It returns nil for an invalid start state, when
// no hit is valid, or when an update is singular.
func (f *Fitter) Fit(seed daf.Seed, hits []daf.Hit, start daf.State) []daf.Trajectory {
	if !start.Valid() {
		return nil
	}
	valid := 0
	for _, h := range hits {
		if h != nil && h.Valid() {
			valid++
		}
	}
	if valid == 0 {
		return nil
	}

	t := daf.Trajectory{Seed: seed}
	state := start.Clone()
	for _, h := range hits {
		if h == nil {
			continue
		}
		z, ok := f.planeZ(h)
		if !ok {
			monitoring.Opsf("kalman: no plane for detector %d, hit skipped", h.Det())
			continue
		}
		pred := propagate(state, z)
		upd := pred
		if h.Valid() {
			if H, m, V, ok := effective(h); ok {
				filtered, chi2, err := update(pred, H, m, V)
				if err != nil {
					monitoring.Diagf("kalman: %v", err)
					return nil
				}
				upd = filtered
				t.ChiSquared += chi2
			}
			t.FoundHits++
		}
		t.Measurements = append(t.Measurements, daf.Measurement{Hit: h, Predicted: pred, Updated: upd})
		state = upd
	}
	if len(t.Measurements) == 0 {
		return nil
	}

	for i := range t.Measurements {
		t.Measurements[i].Updated = propagate(state, t.Measurements[i].Predicted.Z)
	}
	return []daf.Trajectory{t}
}

// transport is the straight-line propagation matrix over dz.
func transport(dz float64) *mat.Dense {
	F := mat.NewDense(daf.StateDim, daf.StateDim, nil)
	for i := 0; i < daf.StateDim; i++ {
		F.Set(i, i, 1)
	}
	F.Set(0, 2, dz)
	F.Set(1, 3, dz)
	return F
}

// propagate moves s to the plane at z.
func propagate(s daf.State, z float64) daf.State {
	F := transport(z - s.Z)
	x := mat.NewVecDense(daf.StateDim, nil)
	x.MulVec(F, s.Params)
	var fp, fpf mat.Dense
	fp.Mul(F, s.Cov)
	fpf.Mul(&fp, F.T())
	return daf.State{Z: z, Params: x, Cov: symmetrize(&fpf)}
}

// update applies one measurement to pred and returns the filtered state and
// its chi2 increment.
func update(pred daf.State, H *mat.Dense, m *mat.VecDense, V *mat.SymDense) (daf.State, float64, error) {
	var hp, s, sinv mat.Dense
	hp.Mul(H, pred.Cov)
	s.Mul(&hp, H.T())
	s.Add(&s, V)
	if err := sinv.Inverse(&s); err != nil {
		return daf.State{}, 0, fmt.Errorf("singular residual covariance at z=%g: %w", pred.Z, err)
	}

	// K = P H^T S^-1; P is symmetric so P H^T = (H P)^T.
	var k mat.Dense
	k.Mul(hp.T(), &sinv)

	r := mat.NewVecDense(m.Len(), nil)
	r.MulVec(H, pred.Params)
	r.SubVec(m, r)

	var dx mat.VecDense
	dx.MulVec(&k, r)
	x := mat.NewVecDense(daf.StateDim, nil)
	x.AddVec(pred.Params, &dx)

	var khp, p mat.Dense
	khp.Mul(&k, &hp)
	p.Sub(pred.Cov, &khp)

	var sr mat.VecDense
	sr.MulVec(&sinv, r)
	return daf.State{Z: pred.Z, Params: x, Cov: symmetrize(&p)}, mat.Dot(r, &sr), nil
}

func symmetrize(a mat.Matrix) *mat.SymDense {
	n, _ := a.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}
	return s
}
