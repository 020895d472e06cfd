// Package kalman provides straight-line fitting collaborators for the
// annealing refit in package daf.
//
// Track states are [x, y, tx, ty, q/p] on planes of constant z. Tracks
// propagate along straight lines with no material, so q/p is carried but
// never measured.
package kalman
