package kalman

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/muonreco/muonreco/internal/track/daf"
)

var errNilHit = errors.New("kalman: nil hit")

// Updater computes annealed component weights
//
//	w_i = phi_i / (sum_j phi_j + phi_cut)
//	phi_i = exp(-chi2_i/2) / sqrt(det(2 pi T V_i))
//
// where chi2_i is the residual of component i against the state with
// covariance T V_i, and phi_cut uses Chi2Cut in place of chi2 with the
// first component's covariance.
type Updater struct {
	chi2Cut float64
}

// NewUpdater creates an updater with the given outlier cut.
func NewUpdater(chi2Cut float64) *Updater {
	return &Updater{chi2Cut: chi2Cut}
}

// Update implements daf.Updater. Invalid hits and hits without position
// components are returned as clones.
func (u *Updater) Update(h daf.Hit, s daf.State, temperature float64) (daf.Hit, error) {
	if h == nil {
		return nil, errNilHit
	}
	comps := components(h)
	if !h.Valid() || len(comps) == 0 {
		return h.Clone(s), nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("kalman: update of detector %d without a state", h.Det())
	}
	if temperature <= 0 {
		return nil, fmt.Errorf("kalman: non-positive annealing temperature %g", temperature)
	}

	logPhi := make([]float64, len(comps))
	var logCut float64
	for i, c := range comps {
		chi2, logNorm, err := annealedResidual(c, s, temperature)
		if err != nil {
			return nil, err
		}
		logPhi[i] = -chi2/2 - logNorm
		if i == 0 {
			logCut = -u.chi2Cut/2 - logNorm
		}
	}

	// Shift by the largest exponent before summing.
	shift := math.Max(floats.Max(logPhi), logCut)
	phi := make([]float64, len(logPhi))
	for i, l := range logPhi {
		phi[i] = math.Exp(l - shift)
	}
	den := floats.Sum(phi) + math.Exp(logCut-shift)
	floats.Scale(1/den, phi)

	switch v := h.(type) {
	case *Hit:
		return v.withWeight(phi[0]), nil
	case *MultiHit:
		return v.reweighted(phi, temperature), nil
	}
	return h.Clone(s), nil
}

// annealedResidual returns chi2 = r^T (T V)^-1 r and log sqrt(det(2 pi T V)).
func annealedResidual(c *Hit, s daf.State, temperature float64) (chi2, logNorm float64, err error) {
	H, m, V := c.projection()
	n, _ := V.Dims()
	tv := mat.NewSymDense(n, nil)
	tv.ScaleSym(temperature, V)

	var chol mat.Cholesky
	if ok := chol.Factorize(tv); !ok {
		return 0, 0, fmt.Errorf("kalman: measurement covariance of detector %d is not positive definite", c.det)
	}
	r := mat.NewVecDense(n, nil)
	r.MulVec(H, s.Params)
	r.SubVec(m, r)

	var sol mat.VecDense
	if err := chol.SolveVecTo(&sol, r); err != nil {
		return 0, 0, fmt.Errorf("kalman: residual solve for detector %d: %w", c.det, err)
	}
	chi2 = mat.Dot(r, &sol)
	logNorm = 0.5 * (float64(n)*math.Log(2*math.Pi) + chol.LogDet())
	return chi2, logNorm, nil
}
