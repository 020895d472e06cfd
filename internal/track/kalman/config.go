package kalman

import "github.com/muonreco/muonreco/internal/config"

// Config holds the collaborator parameters.
type Config struct {
	Chi2Cut float64
	Gate    float64
}

// ConfigFromTuning extracts the collaborator parameters from cfg.
func ConfigFromTuning(cfg *config.TuningConfig) Config {
	return Config{Chi2Cut: cfg.GetChi2Cut(), Gate: cfg.GetCollectorGate()}
}
