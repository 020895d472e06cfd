package omtf

import (
	"fmt"

	"github.com/muonreco/muonreco/internal/config"
)

// window is a per-processor sector range. max < min wraps through 0/2pi.
type window struct {
	min, max int
	sectors  int // sectors over the full circle
}

func (w window) contains(sector int) bool {
	if w.max >= w.min {
		return sector >= w.min && sector <= w.max
	}
	return sector >= w.min || sector <= w.max
}

func (w window) wraps() bool { return w.max < w.min }

// base returns the window minimum to subtract from sector. For a wrapped
// window, sectors past the 0/2pi border are counted from min shifted back by
// one full turn so indices stay monotonic.
func (w window) base(sector int) int {
	if w.wraps() && sector <= w.max {
		return w.min - w.sectors
	}
	return w.min
}

// Tables is the immutable static configuration consumed by the classifier,
// the slot mapper and the input maker.
type Tables struct {
	nProcessors int
	nPhiBins    int
	nLayers     int
	nInputs     int

	barrel   []window
	endcap10 []window
	endcap20 []window

	hwToLogic map[int]int
	pdfBits   map[config.Phase]int
}

// TablesFromConfig builds Tables from a validated TuningConfig.
func TablesFromConfig(cfg *config.TuningConfig) (*Tables, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tables config: %w", err)
	}
	t := &Tables{
		nProcessors: cfg.GetNProcessors(),
		nPhiBins:    cfg.GetNPhiBins(),
		nLayers:     cfg.GetNLayers(),
		nInputs:     cfg.GetNInputs(),
		hwToLogic:   cfg.GetHwToLogicLayer(),
		pdfBits: map[config.Phase]int{
			config.PhaseMatching:     cfg.GetPdfAddrBits(config.PhaseMatching),
			config.PhasePatternBuild: cfg.GetPdfAddrBits(config.PhasePatternBuild),
		},
	}
	t.barrel = windows(cfg.GetBarrelMin(), cfg.GetBarrelMax(), config.BarrelSectors)
	t.endcap10 = windows(cfg.GetEndcap10DegMin(), cfg.GetEndcap10DegMax(), config.Endcap10Sectors)
	t.endcap20 = windows(cfg.GetEndcap20DegMin(), cfg.GetEndcap20DegMax(), config.Endcap20Sectors)
	return t, nil
}

// MustDefaultTables builds Tables from the canonical defaults file.
// Panics if the file cannot be found, intended for tests and tools.
func MustDefaultTables() *Tables {
	t, err := TablesFromConfig(config.MustLoadDefaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

func windows(mins, maxs []int, sectors int) []window {
	out := make([]window, len(mins))
	for i := range mins {
		out[i] = window{min: mins[i], max: maxs[i], sectors: sectors}
	}
	return out
}

// NProcessors returns the number of processors per side.
func (t *Tables) NProcessors() int { return t.nProcessors }

// NPhiBins returns the number of phi bins over 2pi. It doubles as the
// empty-slot marker in an Input.
func (t *Tables) NPhiBins() int { return t.nPhiBins }

// NLayers returns the number of logic layers.
func (t *Tables) NLayers() int { return t.nLayers }

// NInputs returns the number of input slots per logic layer.
func (t *Tables) NInputs() int { return t.nInputs }

// LogicLayer maps a hardware layer number to its logic layer.
func (t *Tables) LogicLayer(hw int) (int, bool) {
	l, ok := t.hwToLogic[hw]
	return l, ok
}

func (t *Tables) validProcessor(processor int) bool {
	return processor >= 0 && processor < t.nProcessors
}
