package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/muon.defaults.json"

// ErrUnsupportedFormat is returned for config files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Phase selects which stage of the pattern workflow a table is used for.
// The PDF address width differs between pattern-table construction and
// runtime matching, so every consumer takes the phase explicitly.
type Phase int

const (
	PhaseMatching     Phase = iota // runtime matching against normalised patterns
	PhasePatternBuild              // filling pattern tables with extended phi width
)

func (p Phase) String() string {
	switch p {
	case PhaseMatching:
		return "matching"
	case PhasePatternBuild:
		return "pattern-build"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Number of sectors spanned by each sector-window family over the full circle.
const (
	BarrelSectors    = 12 // 30 degree DT/RPC barrel sectors
	Endcap10Sectors  = 36 // 10 degree CSC/RPC endcap chambers
	Endcap20Sectors  = 18 // 20 degree CSC chambers (stations 2-4, ring 1)
	DefaultProcessor = 6  // processors per detector side
)

// TuningConfig represents the root configuration for the trigger input maker
// and the track refitter. Scalar fields are pointers so that a partial file
// keeps the defaults for anything it omits; the Get* accessors supply them.
type TuningConfig struct {
	// Trigger geometry
	NProcessors *int `json:"n_processors,omitempty" yaml:"n_processors,omitempty"`
	NPhiBins    *int `json:"n_phi_bins,omitempty" yaml:"n_phi_bins,omitempty"`
	NLayers     *int `json:"n_layers,omitempty" yaml:"n_layers,omitempty"`
	NInputs     *int `json:"n_inputs,omitempty" yaml:"n_inputs,omitempty"`

	// Per-processor sector windows [min, max]; max < min wraps through 0/2pi.
	BarrelMin      []int `json:"barrel_min,omitempty" yaml:"barrel_min,omitempty"`
	BarrelMax      []int `json:"barrel_max,omitempty" yaml:"barrel_max,omitempty"`
	Endcap10DegMin []int `json:"endcap_10deg_min,omitempty" yaml:"endcap_10deg_min,omitempty"`
	Endcap10DegMax []int `json:"endcap_10deg_max,omitempty" yaml:"endcap_10deg_max,omitempty"`
	Endcap20DegMin []int `json:"endcap_20deg_min,omitempty" yaml:"endcap_20deg_min,omitempty"`
	Endcap20DegMax []int `json:"endcap_20deg_max,omitempty" yaml:"endcap_20deg_max,omitempty"`

	// Hardware layer number -> logic layer index
	HwToLogicLayer map[int]int `json:"hw_to_logic_layer,omitempty" yaml:"hw_to_logic_layer,omitempty"`

	// PDF address width per phase
	PdfAddrBitsMatching *int `json:"pdf_addr_bits_matching,omitempty" yaml:"pdf_addr_bits_matching,omitempty"`
	PdfAddrBitsBuild    *int `json:"pdf_addr_bits_build,omitempty" yaml:"pdf_addr_bits_build,omitempty"`

	// Refit params
	AnnealingProgram []float64 `json:"annealing_program,omitempty" yaml:"annealing_program,omitempty"`
	MinHits          *int      `json:"min_hits,omitempty" yaml:"min_hits,omitempty"`
	ArbitraryError   []float64 `json:"arbitrary_error,omitempty" yaml:"arbitrary_error,omitempty"`
	Chi2Cut          *float64  `json:"chi2_cut,omitempty" yaml:"chi2_cut,omitempty"`
	CollectorGate    *float64  `json:"collector_gate,omitempty" yaml:"collector_gate,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields unset.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults. It matches config/muon.defaults.json.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		NProcessors:         ptrInt(c.GetNProcessors()),
		NPhiBins:            ptrInt(c.GetNPhiBins()),
		NLayers:             ptrInt(c.GetNLayers()),
		NInputs:             ptrInt(c.GetNInputs()),
		BarrelMin:           c.GetBarrelMin(),
		BarrelMax:           c.GetBarrelMax(),
		Endcap10DegMin:      c.GetEndcap10DegMin(),
		Endcap10DegMax:      c.GetEndcap10DegMax(),
		Endcap20DegMin:      c.GetEndcap20DegMin(),
		Endcap20DegMax:      c.GetEndcap20DegMax(),
		HwToLogicLayer:      c.GetHwToLogicLayer(),
		PdfAddrBitsMatching: ptrInt(c.GetPdfAddrBits(PhaseMatching)),
		PdfAddrBitsBuild:    ptrInt(c.GetPdfAddrBits(PhasePatternBuild)),
		AnnealingProgram:    c.GetAnnealingProgram(),
		MinHits:             ptrInt(c.GetMinHits()),
		ArbitraryError:      c.GetArbitraryError(),
		Chi2Cut:             ptrFloat64(c.GetChi2Cut()),
		CollectorGate:       ptrFloat64(c.GetCollectorGate()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file, chosen by
// extension (.json, .yaml, .yml). Fields omitted from the file retain their
// default values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: config file must be .json, .yaml or .yml, got %q", ErrUnsupportedFormat, ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,          // from cmd/<tool>/
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/muon/omtf/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.NProcessors != nil && *c.NProcessors <= 0 {
		return fmt.Errorf("n_processors must be positive, got %d", *c.NProcessors)
	}
	if c.NPhiBins != nil && *c.NPhiBins <= 0 {
		return fmt.Errorf("n_phi_bins must be positive, got %d", *c.NPhiBins)
	}
	if c.NLayers != nil && *c.NLayers <= 0 {
		return fmt.Errorf("n_layers must be positive, got %d", *c.NLayers)
	}
	if c.NInputs != nil && *c.NInputs <= 0 {
		return fmt.Errorf("n_inputs must be positive, got %d", *c.NInputs)
	}

	n := c.GetNProcessors()
	windows := []struct {
		name     string
		min, max []int
		sectors  int
	}{
		{"barrel", c.GetBarrelMin(), c.GetBarrelMax(), BarrelSectors},
		{"endcap_10deg", c.GetEndcap10DegMin(), c.GetEndcap10DegMax(), Endcap10Sectors},
		{"endcap_20deg", c.GetEndcap20DegMin(), c.GetEndcap20DegMax(), Endcap20Sectors},
	}
	for _, w := range windows {
		if len(w.min) != n || len(w.max) != n {
			return fmt.Errorf("%s window needs %d min and max entries, got %d and %d", w.name, n, len(w.min), len(w.max))
		}
		for i := 0; i < n; i++ {
			if w.min[i] < 1 || w.min[i] > w.sectors || w.max[i] < 1 || w.max[i] > w.sectors {
				return fmt.Errorf("%s window for processor %d out of range 1..%d: [%d, %d]", w.name, i, w.sectors, w.min[i], w.max[i])
			}
		}
	}

	nLayers := c.GetNLayers()
	for hw, logic := range c.HwToLogicLayer {
		if logic < 0 || logic >= nLayers {
			return fmt.Errorf("hw_to_logic_layer[%d] = %d outside 0..%d", hw, logic, nLayers-1)
		}
	}

	for _, phase := range []Phase{PhaseMatching, PhasePatternBuild} {
		if bits := c.GetPdfAddrBits(phase); bits < 1 || bits > 16 {
			return fmt.Errorf("pdf address bits for %s must be in 1..16, got %d", phase, bits)
		}
	}

	for i, t := range c.AnnealingProgram {
		if t <= 0 {
			return fmt.Errorf("annealing_program[%d] must be positive, got %f", i, t)
		}
	}
	if c.MinHits != nil && *c.MinHits < 0 {
		return fmt.Errorf("min_hits must be non-negative, got %d", *c.MinHits)
	}
	if c.ArbitraryError != nil {
		if len(c.ArbitraryError) != 5 {
			return fmt.Errorf("arbitrary_error needs 5 entries, got %d", len(c.ArbitraryError))
		}
		for i, v := range c.ArbitraryError {
			if v <= 0 {
				return fmt.Errorf("arbitrary_error[%d] must be positive, got %f", i, v)
			}
		}
	}
	if c.Chi2Cut != nil && *c.Chi2Cut <= 0 {
		return fmt.Errorf("chi2_cut must be positive, got %f", *c.Chi2Cut)
	}
	if c.CollectorGate != nil && *c.CollectorGate <= 0 {
		return fmt.Errorf("collector_gate must be positive, got %f", *c.CollectorGate)
	}

	return nil
}

// GetNProcessors returns the n_processors value or the default.
func (c *TuningConfig) GetNProcessors() int {
	if c.NProcessors == nil {
		return DefaultProcessor
	}
	return *c.NProcessors
}

// GetNPhiBins returns the n_phi_bins value or the default.
func (c *TuningConfig) GetNPhiBins() int {
	if c.NPhiBins == nil {
		return 5400
	}
	return *c.NPhiBins
}

// GetNLayers returns the n_layers value or the default.
func (c *TuningConfig) GetNLayers() int {
	if c.NLayers == nil {
		return 18
	}
	return *c.NLayers
}

// GetNInputs returns the n_inputs value or the default.
func (c *TuningConfig) GetNInputs() int {
	if c.NInputs == nil {
		return 14
	}
	return *c.NInputs
}

func orDefault(v, def []int) []int {
	if v == nil {
		v = def
	}
	return append([]int(nil), v...)
}

// GetBarrelMin returns a copy of the barrel window lower bounds.
func (c *TuningConfig) GetBarrelMin() []int {
	return orDefault(c.BarrelMin, []int{2, 4, 6, 8, 10, 12})
}

// GetBarrelMax returns a copy of the barrel window upper bounds.
func (c *TuningConfig) GetBarrelMax() []int {
	return orDefault(c.BarrelMax, []int{4, 6, 8, 10, 12, 2})
}

// GetEndcap10DegMin returns a copy of the 10 degree window lower bounds.
func (c *TuningConfig) GetEndcap10DegMin() []int {
	return orDefault(c.Endcap10DegMin, []int{3, 9, 15, 21, 27, 33})
}

// GetEndcap10DegMax returns a copy of the 10 degree window upper bounds.
func (c *TuningConfig) GetEndcap10DegMax() []int {
	return orDefault(c.Endcap10DegMax, []int{9, 15, 21, 27, 33, 3})
}

// GetEndcap20DegMin returns a copy of the 20 degree window lower bounds.
func (c *TuningConfig) GetEndcap20DegMin() []int {
	return orDefault(c.Endcap20DegMin, []int{2, 5, 8, 11, 14, 17})
}

// GetEndcap20DegMax returns a copy of the 20 degree window upper bounds.
func (c *TuningConfig) GetEndcap20DegMax() []int {
	return orDefault(c.Endcap20DegMax, []int{5, 8, 11, 14, 17, 2})
}

// GetHwToLogicLayer returns a copy of the hardware to logic layer map.
func (c *TuningConfig) GetHwToLogicLayer() map[int]int {
	src := c.HwToLogicLayer
	if src == nil {
		src = map[int]int{
			101: 0, 201: 2, 301: 4, // DT MB1-MB3, bending layer is logic+1
			601: 6, 602: 7, 603: 8, 611: 9, // CSC ME1/3, ME2/2, ME3/2, ME1/2
			501: 10, 502: 11, 503: 12, 504: 13, 505: 14, // RPC RB1in..RB3
			511: 15, 512: 16, 513: 17, // RPC RE1/3..RE3/3
		}
	}
	out := make(map[int]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// HwNumbers returns the configured hardware layer numbers in ascending order.
func (c *TuningConfig) HwNumbers() []int {
	m := c.GetHwToLogicLayer()
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// GetPdfAddrBits returns the PDF address width for the given phase.
func (c *TuningConfig) GetPdfAddrBits(phase Phase) int {
	switch phase {
	case PhasePatternBuild:
		if c.PdfAddrBitsBuild == nil {
			return 14
		}
		return *c.PdfAddrBitsBuild
	default:
		if c.PdfAddrBitsMatching == nil {
			return 7
		}
		return *c.PdfAddrBitsMatching
	}
}

// GetAnnealingProgram returns a copy of the annealing temperatures.
func (c *TuningConfig) GetAnnealingProgram() []float64 {
	if c.AnnealingProgram == nil {
		return []float64{80, 9, 4, 1, 1, 1}
	}
	return append([]float64(nil), c.AnnealingProgram...)
}

// GetMinHits returns the min_hits value or the default.
func (c *TuningConfig) GetMinHits() int {
	if c.MinHits == nil {
		return 6
	}
	return *c.MinHits
}

// GetArbitraryError returns the covariance diagonal used to loosen the prior
// state before each refit.
func (c *TuningConfig) GetArbitraryError() []float64 {
	if c.ArbitraryError == nil {
		return []float64{1e4, 1e4, 1e2, 1e2, 1e2}
	}
	return append([]float64(nil), c.ArbitraryError...)
}

// GetChi2Cut returns the chi2_cut value or the default.
func (c *TuningConfig) GetChi2Cut() float64 {
	if c.Chi2Cut == nil {
		return 15.0
	}
	return *c.Chi2Cut
}

// GetCollectorGate returns the collector_gate value (in sigmas) or the default.
func (c *TuningConfig) GetCollectorGate() float64 {
	if c.CollectorGate == nil {
		return 5.0
	}
	return *c.CollectorGate
}
