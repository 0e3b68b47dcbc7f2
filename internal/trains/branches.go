package trains

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"trainline.dev/trainline/internal/github"
)

// ExceptionalMinorMarker is the manifest field flagging an exceptional
// minor branch
const ExceptionalMinorMarker = "__exceptionalMinor__"

var versionBranchPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.x$`)

// VersionBranch is a branch named after a version, e.g. 15.1.x
type VersionBranch struct {
	Name   string
	Parsed *semver.Version
}

// BranchVersionInfo is what a branch's manifest says about it
type BranchVersionInfo struct {
	Version            *semver.Version
	IsExceptionalMinor bool
}

// VersionBranchRepository reads version branches and their manifests
type VersionBranchRepository interface {
	// VersionBranches returns the version branches of the given majors,
	// most recent first
	VersionBranches(ctx context.Context, majors []uint64) ([]VersionBranch, error)
	// BranchVersion reads the manifest at the tip of a branch
	BranchVersion(ctx context.Context, branch string) (*BranchVersionInfo, error)
}

// IsVersionBranch reports whether a branch name follows the N.N.x convention
func IsVersionBranch(name string) bool {
	return versionBranchPattern.MatchString(name)
}

// VersionFromBranchName parses a version branch name as major.minor.0
func VersionFromBranchName(name string) (*semver.Version, error) {
	m := versionBranchPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%q is not a version branch", name)
	}
	major, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return nil, err
	}
	minor, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return nil, err
	}
	return semver.New(major, minor, 0, "", ""), nil
}

// BranchNameFromVersion returns the version branch a version is released from
func BranchNameFromVersion(v *semver.Version) string {
	return fmt.Sprintf("%d.%d.x", v.Major(), v.Minor())
}

// SortVersionBranches orders branches by descending version
func SortVersionBranches(branches []VersionBranch) {
	sort.SliceStable(branches, func(i, j int) bool {
		return branches[i].Parsed.GreaterThan(branches[j].Parsed)
	})
}

// manifest is the subset of package.json the release tooling reads
type manifest struct {
	Version          string `json:"version"`
	ExceptionalMinor bool   `json:"__exceptionalMinor__"`
}

// ParseManifest reads the version and exceptional minor flag of a manifest
func ParseManifest(content []byte) (*BranchVersionInfo, error) {
	var m manifest
	if err := json.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if m.Version == "" {
		return nil, fmt.Errorf("manifest has no version")
	}
	v, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("manifest version %q is not a valid semver: %w", m.Version, err)
	}
	return &BranchVersionInfo{Version: v, IsExceptionalMinor: m.ExceptionalMinor}, nil
}

// GitHubVersionBranchRepository reads version branches through the GitHub API
type GitHubVersionBranchRepository struct {
	client       github.Client
	manifestPath string
}

var _ VersionBranchRepository = (*GitHubVersionBranchRepository)(nil)

// NewGitHubVersionBranchRepository creates a repository reading the manifest
// at manifestPath of each branch
func NewGitHubVersionBranchRepository(client github.Client, manifestPath string) *GitHubVersionBranchRepository {
	if manifestPath == "" {
		manifestPath = "package.json"
	}
	return &GitHubVersionBranchRepository{client: client, manifestPath: manifestPath}
}

// VersionBranches returns the version branches of the given majors, most
// recent first
func (r *GitHubVersionBranchRepository) VersionBranches(ctx context.Context, majors []uint64) ([]VersionBranch, error) {
	var branches []VersionBranch
	for _, major := range majors {
		names, err := r.client.ListMatchingBranches(ctx, fmt.Sprintf("%d.", major))
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			parsed, err := VersionFromBranchName(name)
			if err != nil || parsed.Major() != major {
				continue
			}
			branches = append(branches, VersionBranch{Name: name, Parsed: parsed})
		}
	}
	SortVersionBranches(branches)
	return branches, nil
}

// BranchVersion reads the manifest at the tip of a branch
func (r *GitHubVersionBranchRepository) BranchVersion(ctx context.Context, branch string) (*BranchVersionInfo, error) {
	content, err := r.client.GetFileContents(ctx, r.manifestPath, branch)
	if err != nil {
		return nil, err
	}
	info, err := ParseManifest(content)
	if err != nil {
		return nil, fmt.Errorf("branch %s: %w", branch, err)
	}
	return info, nil
}
