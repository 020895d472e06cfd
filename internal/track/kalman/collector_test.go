package kalman

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonreco/muonreco/internal/track/daf"
)

func fittedTrajectory(t *testing.T, l line, dir daf.Direction, zs ...float64) daf.Trajectory {
	t.Helper()
	trajs := NewFitter(nil).Fit(daf.Seed{Direction: dir}, asHits(l.pixels(0.01, zs...)), daf.WithArbitraryError(l.state(0), loose))
	require.Len(t, trajs, 1)
	return trajs[0]
}

func TestCollector_GatesAndGroups(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, tx: 0.1}
	pool := l.pixels(0.01, 10, 20, 30)
	pool = append(pool,
		NewPixelHit(2, 20, l.x(20)+0.02, l.y(20), 0.01), // 2 sigma, kept
		NewPixelHit(2, 20, l.x(20)+5, l.y(20), 0.01),    // far off
		NewPixelHit(4, 40, l.x(40)+5, l.y(40), 0.01),    // plane with nothing in the gate
	)
	c := NewCollector(pool, 5)

	got := c.Collect(fittedTrajectory(t, l, daf.AlongMomentum, 10, 20, 30))
	require.Len(t, got, 3)

	var dets []daf.DetID
	for _, m := range got {
		dets = append(dets, m.Hit.Det())
		assert.Equal(t, m.Predicted.Z, m.Hit.(*MultiHit).Z())
	}
	assert.Equal(t, []daf.DetID{1, 2, 3}, dets)
	assert.Equal(t, []float64{0.5, 0.5}, got[1].Hit.(*MultiHit).Weights())
	assert.Equal(t, []float64{1}, got[0].Hit.(*MultiHit).Weights())
}

func TestCollector_OppositeDirection(t *testing.T) {
	t.Parallel()
	l := line{y0: 1, ty: -0.1}
	c := NewCollector(l.pixels(0.01, 10, 20, 30), 5)

	got := c.Collect(fittedTrajectory(t, l, daf.OppositeToMomentum, 10, 20, 30))
	require.Len(t, got, 3)
	assert.Equal(t, 30.0, got[0].Predicted.Z)
	assert.Equal(t, 10.0, got[2].Predicted.Z)
}

func TestCollector_PlaneKeepsAxesOfFirstHit(t *testing.T) {
	t.Parallel()
	l := line{x0: 1, tx: 0.1}
	traj := fittedTrajectory(t, l, daf.AlongMomentum, 10, 20, 30)

	pixelFirst := append(l.pixels(0.01, 10, 20, 30), NewStripHit(1, 10, AxisX, l.x(10), 0.01))
	got := NewCollector(pixelFirst, 5).Collect(traj)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Hit.Dimension())
	assert.Equal(t, []float64{1}, got[0].Hit.(*MultiHit).Weights())

	stripFirst := append([]*Hit{NewStripHit(1, 10, AxisX, l.x(10), 0.01)}, l.pixels(0.01, 10, 20, 30)...)
	got = NewCollector(stripFirst, 5).Collect(traj)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Hit.Dimension())
	assert.Equal(t, []float64{1}, got[0].Hit.(*MultiHit).Weights())
}

func TestCollector_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, NewCollector(nil, 5).Collect(fittedTrajectory(t, line{}, daf.AlongMomentum, 10)))
	assert.Empty(t, NewCollector(line{}.pixels(0.1, 10), 5).Collect(daf.Trajectory{}))
}
