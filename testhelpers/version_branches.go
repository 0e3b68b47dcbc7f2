package testhelpers

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"trainline.dev/trainline/internal/trains"
)

// FakeBranch is a branch of a FakeVersionBranchRepository
type FakeBranch struct {
	Version          string
	ExceptionalMinor bool
}

// FakeVersionBranchRepository is an in-memory trains.VersionBranchRepository
// keyed by branch name
type FakeVersionBranchRepository map[string]FakeBranch

var _ trains.VersionBranchRepository = FakeVersionBranchRepository(nil)

// VersionBranches returns the N.N.x branches of the given majors, most recent first
func (r FakeVersionBranchRepository) VersionBranches(_ context.Context, majors []uint64) ([]trains.VersionBranch, error) {
	var branches []trains.VersionBranch
	for name := range r {
		parsed, err := trains.VersionFromBranchName(name)
		if err != nil {
			continue
		}
		for _, major := range majors {
			if parsed.Major() == major {
				branches = append(branches, trains.VersionBranch{Name: name, Parsed: parsed})
			}
		}
	}
	trains.SortVersionBranches(branches)
	return branches, nil
}

// BranchVersion returns the configured version of a branch
func (r FakeVersionBranchRepository) BranchVersion(_ context.Context, branch string) (*trains.BranchVersionInfo, error) {
	b, ok := r[branch]
	if !ok {
		return nil, fmt.Errorf("branch %s does not exist", branch)
	}
	v, err := semver.NewVersion(b.Version)
	if err != nil {
		return nil, err
	}
	return &trains.BranchVersionInfo{Version: v, IsExceptionalMinor: b.ExceptionalMinor}, nil
}

// Train builds a release train for tests
func Train(branch, version string) *trains.ReleaseTrain {
	return trains.NewReleaseTrain(branch, semver.MustParse(version))
}
