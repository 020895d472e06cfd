package omtf

import "fmt"

// Orientation selects the detector half and track-finder convention used
// when classifying hits.
type Orientation int

const (
	OMTFPos Orientation = iota // overlap, positive side
	OMTFNeg                    // overlap, negative side
	BMTF                       // barrel
	EMTFPos                    // endcap, positive side
	EMTFNeg                    // endcap, negative side
)

// Orientations lists every orientation in declaration order.
var Orientations = []Orientation{OMTFPos, OMTFNeg, BMTF, EMTFPos, EMTFNeg}

func (o Orientation) String() string {
	switch o {
	case OMTFPos:
		return "omtf_pos"
	case OMTFNeg:
		return "omtf_neg"
	case BMTF:
		return "bmtf"
	case EMTFPos:
		return "emtf_pos"
	case EMTFNeg:
		return "emtf_neg"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// IsEMTF reports whether o is one of the endcap orientations.
func (o Orientation) IsEMTF() bool { return o == EMTFPos || o == EMTFNeg }

// ParseOrientation is the inverse of Orientation.String.
func ParseOrientation(s string) (Orientation, error) {
	for _, o := range Orientations {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown orientation %q", s)
}
