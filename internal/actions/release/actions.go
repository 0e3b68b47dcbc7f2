// Package release lists the release actions available for the current state
// of the release trains and performs the ones that only move branches.
package release

import (
	"fmt"

	"trainline.dev/trainline/internal/runtime"
	"trainline.dev/trainline/internal/trains"
)

// Action is a release step that may apply to the active release trains
type Action interface {
	// ID is the stable identifier used on the command line
	ID() string
	// IsActive reports whether the action applies to the trains
	IsActive(active *trains.ActiveReleaseTrains) bool
	// Describe summarizes what the action would do
	Describe(active *trains.ActiveReleaseTrains) string
}

// Performer is implemented by actions the tool can carry out itself.
// Actions that publish packages are only described.
type Performer interface {
	Perform(rt *runtime.Context, active *trains.ActiveReleaseTrains) error
}

// Catalog returns every known release action in display order
func Catalog() []Action {
	return []Action{
		cutNewPatch{},
		cutNextPrerelease{},
		cutReleaseCandidate{},
		cutStable{},
		&branchOff{id: "move-next-into-feature-freeze", featureFreeze: true},
		&branchOff{id: "move-next-into-release-candidate"},
	}
}

// ActiveActions returns the actions that apply to the trains
func ActiveActions(active *trains.ActiveReleaseTrains) []Action {
	var out []Action
	for _, action := range Catalog() {
		if action.IsActive(active) {
			out = append(out, action)
		}
	}
	return out
}

// Find returns the action with the given ID, or an error naming the
// available ones when it is unknown or inactive
func Find(active *trains.ActiveReleaseTrains, id string) (Action, error) {
	var ids []string
	for _, action := range ActiveActions(active) {
		if action.ID() == id {
			return action, nil
		}
		ids = append(ids, action.ID())
	}
	return nil, fmt.Errorf("release action %q is not available, expected one of %v", id, ids)
}

// cutNewPatch releases a patch from the latest train
type cutNewPatch struct{}

func (cutNewPatch) ID() string { return "cut-new-patch" }

func (cutNewPatch) IsActive(active *trains.ActiveReleaseTrains) bool {
	return active.Latest != nil
}

func (cutNewPatch) Describe(active *trains.ActiveReleaseTrains) string {
	v := active.Latest.Version.IncPatch()
	return fmt.Sprintf("Cut a new patch release for the %q branch (v%s).", active.Latest.BranchName, v.String())
}

// cutNextPrerelease releases a pre-release from the release-candidate train,
// or from next when there is none
type cutNextPrerelease struct{}

func (cutNextPrerelease) ID() string { return "cut-next-prerelease" }

func (cutNextPrerelease) IsActive(*trains.ActiveReleaseTrains) bool { return true }

func (cutNextPrerelease) Describe(active *trains.ActiveReleaseTrains) string {
	train := active.Next
	phase := "next"
	if active.ReleaseCandidate != nil {
		train = active.ReleaseCandidate
		phase = "release-candidate"
		if active.IsFeatureFreeze() {
			phase = "feature-freeze"
		}
	}
	version := train.Version
	if bumped, err := nextPrerelease(train.Version); err == nil {
		version = bumped
	}
	return fmt.Sprintf("Cut a new %s pre-release for the %q branch (v%s).", phase, train.BranchName, version)
}

// cutReleaseCandidate moves a feature-freeze train into the release-candidate phase
type cutReleaseCandidate struct{}

func (cutReleaseCandidate) ID() string { return "cut-release-candidate" }

func (cutReleaseCandidate) IsActive(active *trains.ActiveReleaseTrains) bool {
	return active.IsFeatureFreeze()
}

func (cutReleaseCandidate) Describe(active *trains.ActiveReleaseTrains) string {
	rc := active.ReleaseCandidate
	return fmt.Sprintf("Cut a first release-candidate for the feature-freeze branch %q (v%s).",
		rc.BranchName, withPrerelease(rc.Version, "rc.0"))
}

// cutStable releases the release-candidate train as stable
type cutStable struct{}

func (cutStable) ID() string { return "cut-stable" }

func (cutStable) IsActive(active *trains.ActiveReleaseTrains) bool {
	return active.ReleaseCandidate != nil && trains.LeadingPrerelease(active.ReleaseCandidate.Version) == "rc"
}

func (cutStable) Describe(active *trains.ActiveReleaseTrains) string {
	rc := active.ReleaseCandidate
	return fmt.Sprintf("Cut a stable release for the release-candidate branch %q (v%s).",
		rc.BranchName, withPrerelease(rc.Version, ""))
}
