// Package targeting resolves the branches a pull request lands in from its
// target label and the active release trains.
package targeting

// TargetLabel is one of the labels selecting where a pull request lands
type TargetLabel int

// Target labels
const (
	TargetMajor TargetLabel = iota
	TargetMinor
	TargetPatch
	TargetRC
	TargetLTS
	TargetFeature
	TargetAutomation
)

// AllLabels lists every target label
var AllLabels = []TargetLabel{
	TargetMajor, TargetMinor, TargetPatch, TargetRC, TargetLTS, TargetFeature, TargetAutomation,
}

// Name is the label as applied on GitHub
func (l TargetLabel) Name() string {
	switch l {
	case TargetMajor:
		return "target: major"
	case TargetMinor:
		return "target: minor"
	case TargetPatch:
		return "target: patch"
	case TargetRC:
		return "target: rc"
	case TargetLTS:
		return "target: lts"
	case TargetFeature:
		return "target: feature"
	case TargetAutomation:
		return "target: automation"
	}
	panic("unknown target label")
}

// Description explains when the label applies
func (l TargetLabel) Description() string {
	switch l {
	case TargetMajor:
		return "This PR is targeted for the next major release"
	case TargetMinor:
		return "This PR is targeted for the next minor release"
	case TargetPatch:
		return "This PR is targeted for the next patch release"
	case TargetRC:
		return "This PR is targeted for the next release-candidate"
	case TargetLTS:
		return "This PR is targeted for the next long-term support patch release"
	case TargetFeature:
		return "This PR is targeted for a feature branch (outside of the main and version branches)"
	case TargetAutomation:
		return "This PR is created by automation and lands in the version branch it targets"
	}
	panic("unknown target label")
}

func (l TargetLabel) String() string {
	return l.Name()
}
