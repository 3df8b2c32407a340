package coverage

// Label is an insurance coverage hint for a billing item.
type Label string

const (
	LikelyCovered    Label = "likely_covered"
	PartiallyCovered Label = "partially_covered"
	NotCovered       Label = "not_covered"
	Unknown          Label = "unknown"
)

// Labels lists every label in legend order.
var Labels = []Label{LikelyCovered, PartiallyCovered, NotCovered, Unknown}

// IsValid reports whether the label is one of the known values.
func (l Label) IsValid() bool {
	switch l {
	case LikelyCovered, PartiallyCovered, NotCovered, Unknown:
		return true
	default:
		return false
	}
}

// Display returns a short human label.
func (l Label) Display() string {
	switch l {
	case LikelyCovered:
		return "Likely covered"
	case PartiallyCovered:
		return "Partially covered"
	case NotCovered:
		return "Not covered"
	default:
		return "Unknown"
	}
}

// Description explains the label for the page legend.
func (l Label) Description() string {
	switch l {
	case LikelyCovered:
		return "Usually covered by standard health insurance."
	case PartiallyCovered:
		return "Often covered up to a limit or with a co-payment."
	case NotCovered:
		return "Usually excluded and paid by the patient."
	default:
		return "Check with your insurer."
	}
}
