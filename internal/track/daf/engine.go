package daf

import (
	"errors"
	"fmt"

	"github.com/muonreco/muonreco/internal/config"
	"github.com/muonreco/muonreco/internal/monitoring"
)

// errEmptyUpdate is returned internally when the updater yields no hit.
var errEmptyUpdate = errors.New("updater returned no hit")

// Outcome is the result class of one refit. Only OutcomeOK carries a track.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeNoTrajectory: a fit produced no trajectory.
	OutcomeNoTrajectory
	// OutcomeNoCollectedHits: the collector found nothing around the first fit.
	OutcomeNoCollectedHits
	// OutcomeTooFewGoodHits: the annealed trajectory kept fewer than MinHits
	// non-outlier hits.
	OutcomeTooFewGoodHits
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoTrajectory:
		return "no_trajectory"
	case OutcomeNoCollectedHits:
		return "no_collected_hits"
	case OutcomeTooFewGoodHits:
		return "too_few_good_hits"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Config holds the refit parameters.
type Config struct {
	// AnnealingProgram is consumed front to back; empty runs no annealing.
	AnnealingProgram []float64
	// MinHits is the minimum number of good hits for the final refit.
	MinHits int
	// ArbitraryError holds the StateDim prior variances used before each refit.
	ArbitraryError []float64
}

// ConfigFromTuning extracts the refit parameters from cfg.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{
		AnnealingProgram: cfg.GetAnnealingProgram(),
		MinHits:          cfg.GetMinHits(),
		ArbitraryError:   cfg.GetArbitraryError(),
	}
}

// Result is the outcome of one refit.
type Result struct {
	Outcome      Outcome
	Trajectories []Trajectory // final refit output, empty unless OutcomeOK
	Ndof         float64
	GoodHits     int
	Track        *Track
	// Steps holds the recorded fits of this run when a recorder is attached.
	Steps []Step
}

// Engine runs the annealing refit. It keeps no state between runs apart from
// the optional recorder, so an Engine without a recorder may be shared.
type Engine struct {
	fitter    Fitter
	collector Collector
	updater   Updater
	cfg       Config
	recorder  *StepRecorder
}

// NewEngine wires the collaborators with cfg.
func NewEngine(f Fitter, c Collector, u Updater, cfg Config) *Engine {
	return &Engine{fitter: f, collector: c, updater: u, cfg: cfg}
}

// SetRecorder attaches a step recorder; nil detaches it.
func (e *Engine) SetRecorder(r *StepRecorder) {
	e.recorder = r
}

// Run refits one candidate.
func (e *Engine) Run(c Candidate) Result {
	e.recorder.Begin()
	res := e.run(c)
	res.Steps = e.recorder.Steps()
	return res
}

func (e *Engine) run(c Candidate) Result {
	trajs := e.fitter.Fit(c.Seed, c.Hits, c.Start)
	if len(trajs) == 0 {
		return Result{Outcome: OutcomeNoTrajectory}
	}
	e.recorder.record(StageInitial, 0, trajs[0])

	collected := e.collector.Collect(trajs[0])
	if len(collected) == 0 {
		return Result{Outcome: OutcomeNoCollectedHits}
	}
	hits := make([]Hit, len(collected))
	for i, m := range collected {
		hits[i] = m.Hit
	}
	trajs = e.refit(trajs[0].Seed, hits, collected[0].Predicted)
	if len(trajs) == 0 {
		return Result{Outcome: OutcomeNoTrajectory}
	}
	e.recorder.record(StageCollected, 0, trajs[0])

	for step, temperature := range e.cfg.AnnealingProgram {
		hits, start, err := e.updateHits(trajs[0], temperature)
		if err != nil {
			monitoring.Diagf("daf: annealing step %d (T=%g) stopped: %v", step, temperature, err)
			break
		}
		next := e.refit(trajs[0].Seed, hits, start)
		if len(next) == 0 {
			monitoring.Diagf("daf: annealing step %d (T=%g) produced no trajectory", step, temperature)
			break
		}
		trajs = next
		monitoring.Tracef("daf: annealing step %d T=%g chi2=%.4g found=%d", step, temperature, trajs[0].ChiSquared, trajs[0].FoundHits)
		e.recorder.record(StageAnnealing, temperature, trajs[0])
	}

	final, good, ok := e.filter(trajs[0])
	if !ok {
		return Result{Outcome: OutcomeTooFewGoodHits, GoodHits: good}
	}
	if len(final) == 0 {
		return Result{Outcome: OutcomeNoTrajectory, GoodHits: good}
	}
	e.recorder.record(StageFinal, 0, final[0])

	ndof := CalculateNdof(final[0])
	return Result{
		Outcome:      OutcomeOK,
		Trajectories: final,
		Ndof:         ndof,
		GoodHits:     good,
		Track:        newTrack(final[0], ndof, good),
	}
}

// RunAll refits every candidate in order and logs the outcome counts.
func (e *Engine) RunAll(candidates []Candidate) []Result {
	out := make([]Result, len(candidates))
	tracks := 0
	for i, c := range candidates {
		out[i] = e.Run(c)
		if out[i].Outcome == OutcomeOK {
			tracks++
		} else {
			monitoring.Diagf("daf: candidate %d: %s", i, out[i].Outcome)
		}
	}
	monitoring.Diagf("daf: %d candidates, %d tracks", len(candidates), tracks)
	return out
}

func (e *Engine) refit(seed Seed, hits []Hit, start State) []Trajectory {
	return e.fitter.Fit(seed, hits, WithArbitraryError(start, e.cfg.ArbitraryError))
}

// updateHits re-weights every hit of t in reverse measurement order. The
// returned start state is the last measurement's updated state.
func (e *Engine) updateHits(t Trajectory, temperature float64) ([]Hit, State, error) {
	if len(t.Measurements) == 0 {
		return nil, State{}, errEmptyUpdate
	}
	hits := make([]Hit, 0, len(t.Measurements))
	for i := len(t.Measurements) - 1; i >= 0; i-- {
		m := t.Measurements[i]
		updated, err := e.updater.Update(m.Hit, m.Updated, temperature)
		if err != nil {
			return nil, State{}, err
		}
		if updated == nil {
			return nil, State{}, errEmptyUpdate
		}
		hits = append(hits, updated)
	}
	return hits, t.Last().Updated, nil
}

// filter drops outlier hits from t and refits. ok is false when fewer than
// MinHits good hits remain; no refit is attempted in that case.
func (e *Engine) filter(t Trajectory) (out []Trajectory, good int, ok bool) {
	if len(t.Measurements) == 0 {
		return nil, 0, e.cfg.MinHits <= 0
	}
	hits := make([]Hit, 0, len(t.Measurements))
	for i := len(t.Measurements) - 1; i >= 0; i-- {
		m := t.Measurements[i]
		switch {
		case m.Hit == nil:
			continue
		case !m.Hit.Valid():
			hits = append(hits, m.Hit.Clone(m.Updated))
		case IsGood(m.Hit):
			good++
			hits = append(hits, m.Hit.Clone(m.Updated))
		default:
			hits = append(hits, MissingHit{ID: m.Hit.Det()})
		}
	}
	// Collected multi-hits can cover planes the fit never counted.
	if good > t.FoundHits {
		monitoring.Opsf("daf: %d good hits exceed the %d found hits of the trajectory", good, t.FoundHits)
	}
	if good < e.cfg.MinHits {
		return nil, good, false
	}
	return e.refit(t.Seed, hits, t.Last().Updated), good, true
}
