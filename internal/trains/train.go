// Package trains discovers the active release trains of a repository from
// its version branches.
package trains

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ReleaseTrain is a branch together with the version it currently carries
type ReleaseTrain struct {
	BranchName string
	Version    *semver.Version
	// IsMajor is set when the train releases a new major (x.0.0)
	IsMajor bool
}

// NewReleaseTrain creates a release train for a branch
func NewReleaseTrain(branchName string, version *semver.Version) *ReleaseTrain {
	return &ReleaseTrain{
		BranchName: branchName,
		Version:    version,
		IsMajor:    version.Minor() == 0 && version.Patch() == 0,
	}
}

// ActiveReleaseTrains is the inferred state of the release pipeline.
// Next and Latest are always set.
type ActiveReleaseTrains struct {
	Next             *ReleaseTrain
	ReleaseCandidate *ReleaseTrain
	ExceptionalMinor *ReleaseTrain
	Latest           *ReleaseTrain
}

// IsFeatureFreeze reports whether the release-candidate train is still in
// its feature-freeze phase
func (a *ActiveReleaseTrains) IsFeatureFreeze() bool {
	return a.ReleaseCandidate != nil && LeadingPrerelease(a.ReleaseCandidate.Version) == "next"
}

// LeadingPrerelease returns the first prerelease identifier of a version,
// e.g. "rc" for 15.1.0-rc.2
func LeadingPrerelease(v *semver.Version) string {
	pre, _, _ := strings.Cut(v.Prerelease(), ".")
	return pre
}

// IsPrerelease reports whether a version is in the feature-freeze or
// release-candidate phase
func IsPrerelease(v *semver.Version) bool {
	switch LeadingPrerelease(v) {
	case "next", "rc":
		return true
	}
	return false
}
