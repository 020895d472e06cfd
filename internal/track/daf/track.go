package daf

import "github.com/google/uuid"

// Track is the summary of a successful refit.
type Track struct {
	ID         string    `json:"id"`
	ChiSquared float64   `json:"chi2"`
	Ndof       float64   `json:"ndof"`
	Direction  Direction `json:"-"`
	GoodHits   int       `json:"good_hits"`
	// Inner is the state closest to the production point: the first
	// measurement along the momentum, otherwise the last.
	Inner State `json:"-"`
}

func newTrack(t Trajectory, ndof float64, goodHits int) *Track {
	if len(t.Measurements) == 0 {
		return nil
	}
	inner := t.Last().Updated
	if t.Direction() == AlongMomentum {
		inner = t.First().Updated
	}
	return &Track{
		ID:         "trk_" + uuid.NewString(),
		ChiSquared: t.ChiSquared,
		Ndof:       ndof,
		Direction:  t.Direction(),
		GoodHits:   goodHits,
		Inner:      inner.Clone(),
	}
}

// InnerParams returns the inner state parameters, nil when unset.
func (tr *Track) InnerParams() []float64 {
	if tr == nil || !tr.Inner.Valid() {
		return nil
	}
	out := make([]float64, StateDim)
	for i := range out {
		out[i] = tr.Inner.Params.AtVec(i)
	}
	return out
}
