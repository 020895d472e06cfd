package omtf

// Input is the normalised per-processor input snapshot: a grid of
// (logic layer, input slot) holding a phi and an eta value. Empty slots hold
// the nPhiBins marker in phi.
type Input struct {
	nPhiBins int
	phi      [][]int
	eta      [][]int
}

// Hit is one occupied slot of an Input.
type Hit struct {
	Layer int `json:"layer"`
	Input int `json:"input"`
	Phi   int `json:"phi"`
	Eta   int `json:"eta"`
}

// NewInput allocates an empty snapshot.
func NewInput(nLayers, nInputs, nPhiBins int) *Input {
	in := &Input{
		nPhiBins: nPhiBins,
		phi:      make([][]int, nLayers),
		eta:      make([][]int, nLayers),
	}
	for l := range in.phi {
		in.phi[l] = make([]int, nInputs)
		in.eta[l] = make([]int, nInputs)
	}
	in.Clear()
	return in
}

// Clear empties every slot.
func (in *Input) Clear() {
	for l := range in.phi {
		for i := range in.phi[l] {
			in.phi[l][i] = in.nPhiBins
			in.eta[l][i] = 0
		}
	}
}

// AddLayerHit stores phi and eta at (layer, input), replacing any earlier
// value. It returns false when the slot is outside the grid or phi is not a
// measurement (>= nPhiBins); nothing is stored in that case.
func (in *Input) AddLayerHit(layer, input, phi, eta int) bool {
	if layer < 0 || layer >= len(in.phi) || input < 0 || input >= len(in.phi[layer]) {
		return false
	}
	if phi >= in.nPhiBins {
		return false
	}
	in.phi[layer][input] = phi
	in.eta[layer][input] = eta
	return true
}

// Phi returns the phi at (layer, input) and whether the slot is occupied.
func (in *Input) Phi(layer, input int) (int, bool) {
	if layer < 0 || layer >= len(in.phi) || input < 0 || input >= len(in.phi[layer]) {
		return in.nPhiBins, false
	}
	v := in.phi[layer][input]
	return v, v != in.nPhiBins
}

// Eta returns the eta at (layer, input); zero for empty slots.
func (in *Input) Eta(layer, input int) int {
	if layer < 0 || layer >= len(in.eta) || input < 0 || input >= len(in.eta[layer]) {
		return 0
	}
	return in.eta[layer][input]
}

// LayerPhi returns a copy of the phi row of one layer.
func (in *Input) LayerPhi(layer int) []int {
	return append([]int(nil), in.phi[layer]...)
}

// NLayers returns the number of logic layers.
func (in *Input) NLayers() int { return len(in.phi) }

// NInputs returns the number of input slots per layer.
func (in *Input) NInputs() int {
	if len(in.phi) == 0 {
		return 0
	}
	return len(in.phi[0])
}

// Hits lists occupied slots ordered by layer then input.
func (in *Input) Hits() []Hit {
	var hits []Hit
	for l := range in.phi {
		for i, phi := range in.phi[l] {
			if phi == in.nPhiBins {
				continue
			}
			hits = append(hits, Hit{Layer: l, Input: i, Phi: phi, Eta: in.eta[l][i]})
		}
	}
	return hits
}

// Clone returns a deep copy that is independent of later builds.
func (in *Input) Clone() *Input {
	out := &Input{
		nPhiBins: in.nPhiBins,
		phi:      make([][]int, len(in.phi)),
		eta:      make([][]int, len(in.eta)),
	}
	for l := range in.phi {
		out.phi[l] = append([]int(nil), in.phi[l]...)
		out.eta[l] = append([]int(nil), in.eta[l]...)
	}
	return out
}
