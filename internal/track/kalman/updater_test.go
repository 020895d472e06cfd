package kalman

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muonreco/muonreco/internal/track/daf"
)

func TestUpdater_SingleHitOnTrack(t *testing.T) {
	t.Parallel()
	l := line{x0: 1}
	u := NewUpdater(15)
	h := NewStripHit(1, 0, AxisX, 1, 0.1)

	got, err := u.Update(h, l.state(0), 1)
	require.NoError(t, err)
	// phi_cut / phi = exp(-15/2) with a zero residual.
	want := 1 / (1 + math.Exp(-7.5))
	assert.InDelta(t, want, got.Weight(), 1e-12)
	assert.Equal(t, 1.0, h.Weight(), "input is not modified")
}

func TestUpdater_MultiHitWeights(t *testing.T) {
	t.Parallel()
	l := line{}
	u := NewUpdater(15)
	near := NewStripHit(1, 0, AxisX, 0.1, 0.1)
	far := NewStripHit(1, 0, AxisX, -0.3, 0.1)
	multi := NewMultiHit([]*Hit{near, far})

	cold, err := u.Update(multi, l.state(0), 1)
	require.NoError(t, err)
	hot, err := u.Update(multi, l.state(0), 9)
	require.NoError(t, err)

	cw := cold.(*MultiHit).Weights()
	hw := hot.(*MultiHit).Weights()
	// chi2: 1 and 9 at T=1.
	ratio := math.Exp(-0.5) / math.Exp(-4.5)
	assert.InDelta(t, ratio, cw[0]/cw[1], 1e-9)
	assert.Greater(t, cw[0]/cw[1], hw[0]/hw[1], "higher temperature flattens weights")
	assert.LessOrEqual(t, cw[0]+cw[1], 1.0)
	assert.Equal(t, 1.0, cold.(*MultiHit).Temperature())
	assert.Equal(t, []float64{0.5, 0.5}, multi.Weights(), "input is not modified")
}

func TestUpdater_EqualResidualsShareWeight(t *testing.T) {
	t.Parallel()
	u := NewUpdater(15)
	multi := NewMultiHit([]*Hit{
		NewPixelHit(1, 0, 0.2, 0, 0.1),
		NewPixelHit(1, 0, -0.2, 0, 0.1),
	})

	got, err := u.Update(multi, line{}.state(0), 4)
	require.NoError(t, err)
	w := got.(*MultiHit).Weights()
	assert.InDelta(t, w[0], w[1], 1e-12)
}

func TestUpdater_Errors(t *testing.T) {
	t.Parallel()
	u := NewUpdater(15)
	h := NewStripHit(1, 0, AxisX, 0, 0.1)

	_, err := u.Update(nil, line{}.state(0), 1)
	assert.Error(t, err)
	_, err = u.Update(h, line{}.state(0), 0)
	assert.Error(t, err)
	_, err = u.Update(h, daf.State{}, 1)
	assert.Error(t, err)

	missing, err := u.Update(daf.MissingHit{ID: 3}, line{}.state(0), 1)
	require.NoError(t, err)
	assert.Equal(t, daf.MissingHit{ID: 3}, missing)

	_, err = u.Update(NewStripHit(1, 0, AxisX, 0, 0), line{}.state(0), 1)
	assert.Error(t, err, "zero resolution is not positive definite")
}
