package omtf

import "github.com/muonreco/muonreco/internal/config"

// Addressing maps a phi distance to a bin of a pattern PDF. The width of the
// PDF depends on the phase: pattern tables are filled with a wider phi range
// than is used at matching time.
type Addressing struct {
	phase config.Phase
	bits  int
}

// Addressing returns the PDF addressing for the given phase.
func (t *Tables) Addressing(phase config.Phase) Addressing {
	return Addressing{phase: phase, bits: t.pdfBits[phase]}
}

// Phase returns the phase the addressing was built for.
func (a Addressing) Phase() config.Phase { return a.phase }

// Bits returns the address width.
func (a Addressing) Bits() int { return a.bits }

// Size returns the number of PDF bins.
func (a Addressing) Size() int { return 1 << a.bits }

// Address returns the PDF bin for a hit at deltaPhi from the reference hit,
// given the pattern's mean distance for the layer. ok is false when the
// distance falls outside the PDF.
func (a Addressing) Address(deltaPhi, meanDistPhi int) (addr int, ok bool) {
	addr = deltaPhi - meanDistPhi + a.Size()/2
	if addr < 0 || addr >= a.Size() {
		return 0, false
	}
	return addr, true
}

// Addresses returns, for every slot of in, the PDF bin of its phi relative to
// refPhi. meanDistPhi holds one mean distance per layer (missing layers use
// zero). Empty or out-of-range slots are -1.
func (in *Input) Addresses(a Addressing, refPhi int, meanDistPhi []int) [][]int {
	out := make([][]int, in.NLayers())
	for l := range out {
		mean := 0
		if l < len(meanDistPhi) {
			mean = meanDistPhi[l]
		}
		out[l] = make([]int, in.NInputs())
		for i := range out[l] {
			out[l][i] = -1
			phi, ok := in.Phi(l, i)
			if !ok {
				continue
			}
			if addr, ok := a.Address(phi-refPhi, mean); ok {
				out[l][i] = addr
			}
		}
	}
	return out
}
