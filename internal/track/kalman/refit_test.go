package kalman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonreco/muonreco/internal/config"
	"github.com/muonreco/muonreco/internal/track/daf"
)

// countingFitter counts Fit calls.
type countingFitter struct {
	*Fitter
	calls int
}

func (c *countingFitter) Fit(seed daf.Seed, hits []daf.Hit, start daf.State) []daf.Trajectory {
	c.calls++
	return c.Fitter.Fit(seed, hits, start)
}

func perfectStrips(l line, zs ...float64) []*Hit {
	out := make([]*Hit, len(zs))
	for i, z := range zs {
		out[i] = NewStripHit(daf.DetID(i+1), z, AxisX, l.x(z), 0.1)
	}
	return out
}

func refitEngine(f daf.Fitter, pool []*Hit, program []float64, minHits int) *daf.Engine {
	cfg := daf.Config{
		AnnealingProgram: program,
		MinHits:          minHits,
		ArbitraryError:   loose,
	}
	return daf.NewEngine(f, NewCollector(pool, 5), NewUpdater(15), cfg)
}

func TestRefit_ThreePerfectHits(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, y0: 2, tx: 0.1}
	hits := perfectStrips(l, 10, 20, 30)
	f := &countingFitter{Fitter: NewFitter(nil)}
	e := refitEngine(f, hits, nil, 3)

	res := e.Run(daf.Candidate{Hits: asHits(hits), Start: l.state(0)})
	require.Equal(t, daf.OutcomeOK, res.Outcome)
	assert.Equal(t, 3, res.GoodHits)
	assert.InDelta(t, 3*1-5, res.Ndof, 1e-12)
	assert.Equal(t, 3, f.calls)

	require.NotNil(t, res.Track)
	assert.InDelta(t, 0, res.Track.ChiSquared, 1e-6)
	inner := res.Track.InnerParams()
	assert.InDelta(t, l.x(res.Track.Inner.Z), inner[0], 1e-6)
	assert.InDelta(t, l.tx, inner[2], 1e-6)
}

func TestRefit_MinHitsAboveGoodHits(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, y0: 2, tx: 0.1}
	hits := perfectStrips(l, 10, 20, 30)
	f := &countingFitter{Fitter: NewFitter(nil)}
	e := refitEngine(f, hits, nil, 4)

	res := e.Run(daf.Candidate{Hits: asHits(hits), Start: l.state(0)})
	assert.Equal(t, daf.OutcomeTooFewGoodHits, res.Outcome)
	assert.Equal(t, 3, res.GoodHits)
	assert.Nil(t, res.Track)
	assert.Equal(t, 2, f.calls, "no final refit")
}

func TestRefit_AnnealingSuppressesNoise(t *testing.T) {
	t.Parallel()
	l := line{x0: -1, y0: 0.5, tx: 0.05, ty: 0.02}
	signal := l.pixels(0.1, 10, 20, 30, 40, 50)
	noise := NewPixelHit(3, 30, l.x(30)+0.25, l.y(30), 0.1)
	pool := append(append([]*Hit(nil), signal...), noise)

	e := refitEngine(NewFitter(nil), pool, []float64{9, 4, 1}, 5)
	rec := daf.NewStepRecorder()
	e.SetRecorder(rec)

	res := e.Run(daf.Candidate{Hits: asHits(signal), Start: l.state(0)})
	require.Equal(t, daf.OutcomeOK, res.Outcome)
	assert.Equal(t, 5, res.GoodHits)

	var plane3 []float64
	for _, m := range res.Trajectories[0].Measurements {
		if m.Hit.Det() == 3 {
			plane3 = m.Hit.(*MultiHit).Weights()
		}
	}
	require.Len(t, plane3, 2)
	assert.Greater(t, plane3[0], 0.9)
	assert.Less(t, plane3[1], 0.1)
	assert.Less(t, res.Ndof, 10.0-5)

	steps := rec.Steps()
	require.Len(t, steps, 6)
	assert.Equal(t, daf.StageAnnealing, steps[2].Stage)
	assert.Equal(t, 1.0, steps[4].Temperature)
}

func TestConfigFromTuning(t *testing.T) {
	t.Parallel()
	cfg := ConfigFromTuning(config.DefaultTuningConfig())
	assert.Equal(t, 15.0, cfg.Chi2Cut)
	assert.Equal(t, 5.0, cfg.Gate)
}

func TestRefit_MixedAxesOnOnePlane(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, y0: 2, tx: 0.1, ty: -0.05}
	pixels := l.pixels(0.01, 10, 20, 30)
	pool := append([]*Hit{pixels[0], NewStripHit(1, 10, AxisX, l.x(10), 0.01)}, pixels[1:]...)
	e := refitEngine(NewFitter(nil), pool, []float64{4, 1}, 3)

	var res daf.Result
	require.NotPanics(t, func() {
		res = e.Run(daf.Candidate{Hits: asHits(pixels), Start: l.state(0)})
	})
	require.Equal(t, daf.OutcomeOK, res.Outcome)
	assert.Equal(t, 3, res.GoodHits)
	for _, m := range res.Trajectories[0].Measurements {
		assert.Equal(t, 2, m.Hit.Dimension())
	}
}
