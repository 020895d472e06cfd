package kalman

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/muonreco/muonreco/internal/track/daf"
)

// Axis is a measured state coordinate.
type Axis int

const (
	AxisX Axis = 0
	AxisY Axis = 1
)

// Hit is a position measurement on one plane.
type Hit struct {
	det       daf.DetID
	z         float64
	axes      []Axis
	values    []float64
	variances []float64
	weight    float64
}

// NewStripHit measures one coordinate with resolution sigma.
func NewStripHit(det daf.DetID, z float64, axis Axis, value, sigma float64) *Hit {
	return &Hit{
		det:       det,
		z:         z,
		axes:      []Axis{axis},
		values:    []float64{value},
		variances: []float64{sigma * sigma},
		weight:    1,
	}
}

// NewPixelHit measures x and y with a common resolution sigma.
func NewPixelHit(det daf.DetID, z, x, y, sigma float64) *Hit {
	return &Hit{
		det:       det,
		z:         z,
		axes:      []Axis{AxisX, AxisY},
		values:    []float64{x, y},
		variances: []float64{sigma * sigma, sigma * sigma},
		weight:    1,
	}
}

func (h *Hit) Det() daf.DetID        { return h.det }
func (h *Hit) Valid() bool           { return true }
func (h *Hit) Dimension() int        { return len(h.axes) }
func (h *Hit) Weight() float64       { return h.weight }
func (h *Hit) Z() float64            { return h.z }
func (h *Hit) Values() []float64     { return append([]float64(nil), h.values...) }
func (h *Hit) Components() []daf.Hit { return []daf.Hit{h} }

// Clone implements daf.Hit. The state is not needed for a plain position
// measurement.
func (h *Hit) Clone(daf.State) daf.Hit { return h.withWeight(h.weight) }

func (h *Hit) withWeight(w float64) *Hit {
	c := *h
	c.axes = append([]Axis(nil), h.axes...)
	c.values = append([]float64(nil), h.values...)
	c.variances = append([]float64(nil), h.variances...)
	c.weight = w
	return &c
}

// sameAxes reports whether h and o measure the same coordinates in the same
// order.
func (h *Hit) sameAxes(o *Hit) bool {
	if len(h.axes) != len(o.axes) {
		return false
	}
	for i, a := range h.axes {
		if o.axes[i] != a {
			return false
		}
	}
	return true
}

func (h *Hit) String() string {
	return fmt.Sprintf("hit(det=%d z=%g %v w=%.3g)", h.det, h.z, h.values, h.weight)
}

// projection returns the measurement matrix, the measured values and their
// covariance.
func (h *Hit) projection() (*mat.Dense, *mat.VecDense, *mat.SymDense) {
	n := len(h.axes)
	H := mat.NewDense(n, daf.StateDim, nil)
	V := mat.NewSymDense(n, nil)
	for i, a := range h.axes {
		H.Set(i, int(a), 1)
		V.SetSym(i, i, h.variances[i])
	}
	return H, mat.NewVecDense(n, append([]float64(nil), h.values...)), V
}

// MultiHit groups competing hits on one plane.
type MultiHit struct {
	det         daf.DetID
	z           float64
	components  []*Hit
	temperature float64
}

// NewMultiHit groups hits that share a plane, giving each the same weight.
// Hits measuring other axes than the first one are left out. It returns nil
// for an empty list.
func NewMultiHit(hits []*Hit) *MultiHit {
	if len(hits) == 0 {
		return nil
	}
	kept := make([]*Hit, 0, len(hits))
	for _, h := range hits {
		if h.sameAxes(hits[0]) {
			kept = append(kept, h)
		}
	}
	w := 1 / float64(len(kept))
	m := &MultiHit{det: hits[0].det, z: hits[0].z}
	for _, h := range kept {
		m.components = append(m.components, h.withWeight(w))
	}
	return m
}

func (m *MultiHit) Det() daf.DetID       { return m.det }
func (m *MultiHit) Valid() bool          { return len(m.components) > 0 }
func (m *MultiHit) Z() float64           { return m.z }
func (m *MultiHit) Temperature() float64 { return m.temperature }

// Dimension returns the dimension of the components.
func (m *MultiHit) Dimension() int {
	if len(m.components) == 0 {
		return 0
	}
	return m.components[0].Dimension()
}

// Weight returns the summed component weight.
func (m *MultiHit) Weight() float64 {
	return floats.Sum(m.Weights())
}

// Weights returns the component weights in order.
func (m *MultiHit) Weights() []float64 {
	out := make([]float64, len(m.components))
	for i, c := range m.components {
		out[i] = c.weight
	}
	return out
}

func (m *MultiHit) Components() []daf.Hit {
	out := make([]daf.Hit, len(m.components))
	for i, c := range m.components {
		out[i] = c
	}
	return out
}

// Clone implements daf.Hit.
func (m *MultiHit) Clone(daf.State) daf.Hit {
	return m.reweighted(m.Weights(), m.temperature)
}

func (m *MultiHit) reweighted(weights []float64, temperature float64) *MultiHit {
	c := &MultiHit{det: m.det, z: m.z, temperature: temperature}
	for i, h := range m.components {
		c.components = append(c.components, h.withWeight(weights[i]))
	}
	return c
}

// components returns the position hits behind h.
func components(h daf.Hit) []*Hit {
	switch v := h.(type) {
	case *Hit:
		return []*Hit{v}
	case *MultiHit:
		return v.components
	}
	return nil
}

// effective combines the weighted components of h into one measurement:
// V = (sum w_i V_i^-1)^-1, m = V sum w_i V_i^-1 m_i.
// Components whose axes differ from the first component are ignored.
// ok is false when no component carries weight.
func effective(h daf.Hit) (H *mat.Dense, m *mat.VecDense, V *mat.SymDense, ok bool) {
	var (
		info   *mat.Dense
		moment *mat.VecDense
	)
	comps := components(h)
	for _, c := range comps {
		if c.weight <= 0 || !c.sameAxes(comps[0]) {
			continue
		}
		ch, cm, cv := c.projection()
		var vinv mat.Dense
		if err := vinv.Inverse(cv); err != nil {
			continue
		}
		vinv.Scale(c.weight, &vinv)
		var vm mat.VecDense
		vm.MulVec(&vinv, cm)
		if info == nil {
			H = ch
			n := len(c.axes)
			info = mat.NewDense(n, n, nil)
			moment = mat.NewVecDense(n, nil)
		}
		info.Add(info, &vinv)
		moment.AddVec(moment, &vm)
	}
	if info == nil {
		return nil, nil, nil, false
	}
	var cov mat.Dense
	if err := cov.Inverse(info); err != nil {
		return nil, nil, nil, false
	}
	V = symmetrize(&cov)
	m = mat.NewVecDense(moment.Len(), nil)
	m.MulVec(V, moment)
	return H, m, V, true
}
