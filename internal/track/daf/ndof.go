package daf

import "gonum.org/v1/gonum/floats"

// OutlierWeight is the component weight at or below which a component is
// treated as an outlier.
const OutlierWeight = 1e-6

// IsGood reports whether h is valid and has at least one component above
// OutlierWeight.
func IsGood(h Hit) bool {
	if h == nil || !h.Valid() {
		return false
	}
	for _, c := range h.Components() {
		if c.Weight() > OutlierWeight {
			return true
		}
	}
	return false
}

// CalculateNdof returns the fractional number of degrees of freedom of t:
// the sum of dimension times weight over the valid, non-outlier components
// of its valid hits, minus StateDim. The result may be negative.
func CalculateNdof(t Trajectory) float64 {
	var dims, weights []float64
	for _, m := range t.Measurements {
		if m.Hit == nil || !m.Hit.Valid() {
			continue
		}
		for _, c := range m.Hit.Components() {
			if !c.Valid() || c.Weight() <= OutlierWeight {
				continue
			}
			dims = append(dims, float64(c.Dimension()))
			weights = append(weights, c.Weight())
		}
	}
	return floats.Dot(dims, weights) - StateDim
}
