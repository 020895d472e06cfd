package kalman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonreco/muonreco/internal/track/daf"
)

// line is x = x0 + tx z, y = y0 + ty z.
type line struct{ x0, y0, tx, ty float64 }

func (l line) x(z float64) float64 { return l.x0 + l.tx*z }
func (l line) y(z float64) float64 { return l.y0 + l.ty*z }

func (l line) state(z float64, variances ...float64) daf.State {
	if len(variances) == 0 {
		variances = []float64{1, 1, 0.1, 0.1, 1}
	}
	return daf.NewState(z, []float64{l.x(z), l.y(z), l.tx, l.ty, 0.01}, variances)
}

func (l line) pixels(sigma float64, zs ...float64) []*Hit {
	out := make([]*Hit, len(zs))
	for i, z := range zs {
		out[i] = NewPixelHit(daf.DetID(i+1), z, l.x(z), l.y(z), sigma)
	}
	return out
}

func asHits(hs []*Hit) []daf.Hit {
	out := make([]daf.Hit, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}

var loose = []float64{1e4, 1e4, 100, 100, 100}

func TestFit_RecoversStraightLine(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, y0: -2, tx: 0.1, ty: -0.05}
	hits := l.pixels(0.01, 10, 20, 30, 40)
	start := daf.WithArbitraryError(line{}.state(0), loose)

	trajs := NewFitter(nil).Fit(daf.Seed{}, asHits(hits), start)
	require.Len(t, trajs, 1)
	tr := trajs[0]
	require.Len(t, tr.Measurements, 4)
	assert.Equal(t, 4, tr.FoundHits)
	assert.Less(t, tr.ChiSquared, 1e-3)

	for _, m := range tr.Measurements {
		z := m.Updated.Z
		assert.InDelta(t, l.x(z), m.Updated.Params.AtVec(0), 1e-4)
		assert.InDelta(t, l.y(z), m.Updated.Params.AtVec(1), 1e-4)
		assert.InDelta(t, l.tx, m.Updated.Params.AtVec(2), 1e-5)
		assert.InDelta(t, l.ty, m.Updated.Params.AtVec(3), 1e-5)
	}
	// The first prediction still carries the loose prior.
	assert.Greater(t, tr.First().Predicted.Cov.At(0, 0), 1e3)
	assert.Less(t, tr.First().Updated.Cov.At(0, 0), 1e-3)
}

func TestFit_RejectsUnusableInput(t *testing.T) {
	t.Parallel()
	l := line{x0: 1}
	f := NewFitter(Geometry{7: 50})

	assert.Nil(t, f.Fit(daf.Seed{}, asHits(l.pixels(0.1, 10)), daf.State{}))
	assert.Nil(t, f.Fit(daf.Seed{}, nil, l.state(0)))
	assert.Nil(t, f.Fit(daf.Seed{}, []daf.Hit{daf.MissingHit{ID: 7}}, l.state(0)))
}

func TestFit_MissingAndUnknownPlanes(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, tx: 0.2}
	f := NewFitter(Geometry{7: 25})
	px := l.pixels(0.01, 10, 20, 30)
	hits := []daf.Hit{px[0], px[1], daf.MissingHit{ID: 7}, daf.MissingHit{ID: 99}, px[2]}

	trajs := f.Fit(daf.Seed{Direction: daf.OppositeToMomentum}, hits, daf.WithArbitraryError(l.state(0), loose))
	require.Len(t, trajs, 1)
	tr := trajs[0]
	assert.Equal(t, daf.OppositeToMomentum, tr.Direction())
	assert.Equal(t, 3, tr.FoundHits)
	require.Len(t, tr.Measurements, 4, "unknown plane is skipped")

	missing := tr.Measurements[2]
	assert.Equal(t, 25.0, missing.Predicted.Z)
	assert.False(t, missing.Hit.Valid())
	assert.InDelta(t, l.x(25), missing.Updated.Params.AtVec(0), 1e-3)
}

func TestFit_WeightedMultiHitUsesWeightedMean(t *testing.T) {
	t.Parallel()
	l := line{}
	a := NewStripHit(1, 10, AxisX, 1, 0.1)
	b := NewStripHit(1, 10, AxisX, -1, 0.1)
	multi := NewMultiHit([]*Hit{a, b})

	H, m, V, ok := effective(multi)
	require.True(t, ok)
	assert.Equal(t, 1.0, H.At(0, 0))
	assert.InDelta(t, 0, m.AtVec(0), 1e-12)
	// Two half-weight copies of the same resolution.
	assert.InDelta(t, 0.01, V.At(0, 0), 1e-12)

	skewed := multi.reweighted([]float64{0.75, 0.25}, 1)
	_, m, V, ok = effective(skewed)
	require.True(t, ok)
	assert.InDelta(t, 0.5, m.AtVec(0), 1e-12)
	assert.InDelta(t, 0.01, V.At(0, 0), 1e-12)

	_, _, _, ok = effective(multi.reweighted([]float64{0, 0}, 1))
	assert.False(t, ok)

	// A zero-weight hit still counts as found but does not move the fit.
	trajs := NewFitter(nil).Fit(daf.Seed{}, []daf.Hit{multi.reweighted([]float64{0, 0}, 1)}, l.state(0))
	require.Len(t, trajs, 1)
	assert.Equal(t, 1, trajs[0].FoundHits)
	assert.Equal(t, 0.0, trajs[0].ChiSquared)
}

func TestPropagate(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, y0: 2, tx: 0.5, ty: -0.5}
	s := l.state(0, 1, 1, 0.01, 0.01, 1)

	p := propagate(s, 10)
	assert.Equal(t, 10.0, p.Z)
	assert.InDelta(t, l.x(10), p.Params.AtVec(0), 1e-12)
	assert.InDelta(t, l.y(10), p.Params.AtVec(1), 1e-12)
	// var(x) = var(x0) + dz^2 var(tx)
	assert.InDelta(t, 2, p.Cov.At(0, 0), 1e-12)
	assert.InDelta(t, 0.1, p.Cov.At(0, 2), 1e-12)

	back := propagate(p, 0)
	assert.InDelta(t, 1, back.Cov.At(0, 0), 1e-12)
	assert.InDelta(t, l.x0, back.Params.AtVec(0), 1e-12)
}
