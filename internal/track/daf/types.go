package daf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateDim is the number of fitted track parameters.
const StateDim = 5

// DetID identifies a detector plane.
type DetID uint32

// Direction is the propagation direction of a trajectory relative to the
// particle momentum.
type Direction int

const (
	AlongMomentum Direction = iota
	OppositeToMomentum
)

func (d Direction) String() string {
	switch d {
	case AlongMomentum:
		return "along"
	case OppositeToMomentum:
		return "opposite"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// State is a track state on a plane of constant Z.
type State struct {
	Z      float64
	Params *mat.VecDense // StateDim parameters
	Cov    *mat.SymDense // StateDim x StateDim
}

// NewState builds a state with a diagonal covariance.
func NewState(z float64, params, variances []float64) State {
	return State{
		Z:      z,
		Params: mat.NewVecDense(StateDim, append([]float64(nil), params...)),
		Cov:    diagSym(variances),
	}
}

func diagSym(d []float64) *mat.SymDense {
	c := mat.NewSymDense(StateDim, nil)
	for i := 0; i < StateDim && i < len(d); i++ {
		c.SetSym(i, i, d[i])
	}
	return c
}

// Valid reports whether the state carries parameters and a covariance.
func (s State) Valid() bool { return s.Params != nil && s.Cov != nil }

// Clone returns a deep copy.
func (s State) Clone() State {
	if !s.Valid() {
		return State{Z: s.Z}
	}
	out := State{Z: s.Z, Params: mat.VecDenseCopyOf(s.Params), Cov: mat.NewSymDense(StateDim, nil)}
	out.Cov.CopySym(s.Cov)
	return out
}

// WithArbitraryError returns s with its covariance replaced by a diagonal
// matrix of the given variances, so a refit is not biased by the precision
// of the previous one. Invalid states are returned unchanged.
func WithArbitraryError(s State, variances []float64) State {
	if !s.Valid() {
		return s
	}
	return State{Z: s.Z, Params: mat.VecDenseCopyOf(s.Params), Cov: diagSym(variances)}
}

// Hit is a measurement on one detector plane. A multi-hit exposes its
// competing measurements through Components; a simple hit returns itself as
// its only component.
type Hit interface {
	Det() DetID
	Valid() bool
	Dimension() int
	Weight() float64
	Components() []Hit
	// Clone returns a copy of the hit re-evaluated at s.
	Clone(s State) Hit
}

// MissingHit marks a plane crossed without a usable measurement.
type MissingHit struct {
	ID DetID
}

func (h MissingHit) Det() DetID        { return h.ID }
func (MissingHit) Valid() bool         { return false }
func (MissingHit) Dimension() int      { return 0 }
func (MissingHit) Weight() float64     { return 0 }
func (MissingHit) Components() []Hit   { return nil }
func (h MissingHit) Clone(_ State) Hit { return h }
func (h MissingHit) String() string    { return fmt.Sprintf("missing(%d)", h.ID) }

// Measurement pairs a hit with the predicted and smoothed states on its plane.
type Measurement struct {
	Hit       Hit
	Predicted State
	Updated   State
}

// Seed carries what a refit needs from the original seed.
type Seed struct {
	Direction Direction
}

// Trajectory is one fit result. Measurements are in fit order.
type Trajectory struct {
	Seed         Seed
	Measurements []Measurement
	ChiSquared   float64
	FoundHits    int
}

// Direction returns the seed direction.
func (t Trajectory) Direction() Direction { return t.Seed.Direction }

// First returns the first measurement. The trajectory must not be empty.
func (t Trajectory) First() Measurement { return t.Measurements[0] }

// Last returns the last measurement. The trajectory must not be empty.
func (t Trajectory) Last() Measurement { return t.Measurements[len(t.Measurements)-1] }

// Candidate is the input of one refit: the seed, its initial hits and the
// start state.
type Candidate struct {
	Seed  Seed
	Hits  []Hit
	Start State
}

// Fitter fits hits in the given order starting from start. An empty result
// means no trajectory could be built.
type Fitter interface {
	Fit(seed Seed, hits []Hit, start State) []Trajectory
}

// Collector builds multi-hits around a trajectory, one per crossed plane.
type Collector interface {
	Collect(t Trajectory) []Measurement
}

// Updater re-weights the components of h against s at the given annealing
// temperature.
type Updater interface {
	Update(h Hit, s State, temperature float64) (Hit, error)
}
