package daf

// Stage names a point in a refit where a step is recorded.
type Stage string

const (
	StageInitial   Stage = "initial"
	StageCollected Stage = "collected"
	StageAnnealing Stage = "annealing"
	StageFinal     Stage = "final"
)

// Step is a snapshot of the best trajectory after one fit.
type Step struct {
	Stage       Stage
	Temperature float64 // zero outside the annealing stage
	ChiSquared  float64
	// Weights holds the component weights of each measurement, in fit order.
	Weights [][]float64
}

// StepRecorder captures every fit of a refit for replay and plotting.
// A disabled recorder ignores all calls.
type StepRecorder struct {
	enabled bool
	steps   []Step
}

// NewStepRecorder creates an enabled recorder.
func NewStepRecorder() *StepRecorder {
	return &StepRecorder{enabled: true}
}

// SetEnabled controls whether steps are recorded.
func (r *StepRecorder) SetEnabled(enabled bool) {
	r.enabled = enabled
}

// Begin discards the steps of any previous run.
func (r *StepRecorder) Begin() {
	if r == nil {
		return
	}
	r.steps = r.steps[:0]
}

func (r *StepRecorder) record(stage Stage, temperature float64, t Trajectory) {
	if r == nil || !r.enabled {
		return
	}
	weights := make([][]float64, len(t.Measurements))
	for i, m := range t.Measurements {
		if m.Hit == nil {
			continue
		}
		for _, c := range m.Hit.Components() {
			weights[i] = append(weights[i], c.Weight())
		}
	}
	r.steps = append(r.steps, Step{
		Stage:       stage,
		Temperature: temperature,
		ChiSquared:  t.ChiSquared,
		Weights:     weights,
	})
}

// Steps returns the steps recorded since the last Begin.
func (r *StepRecorder) Steps() []Step {
	if r == nil {
		return nil
	}
	return append([]Step(nil), r.steps...)
}
