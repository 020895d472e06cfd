// Package daf refits track candidates with the deterministic annealing
// filter. Hits competing for the same detector plane are combined into
// weighted multi-hits; an annealing schedule sharpens the weights over a
// sequence of refits, and hits whose every component ends up below
// OutlierWeight are dropped before the final fit.
//
// The fitting, collecting and weight-updating steps are collaborators
// supplied by the caller (see the Fitter, Collector and Updater
// interfaces); package kalman provides a straight-line implementation.
package daf
