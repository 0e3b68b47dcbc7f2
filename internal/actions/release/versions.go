package release

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// manifestVersionPattern matches the top-level version field of a manifest.
// The first match is the package version in every manifest the release
// tooling writes.
var manifestVersionPattern = regexp.MustCompile(`("version"\s*:\s*")[^"]*(")`)

// SetManifestVersion rewrites the version of a manifest, leaving the rest of
// the file byte for byte unchanged
func SetManifestVersion(content []byte, version *semver.Version) ([]byte, error) {
	loc := manifestVersionPattern.FindSubmatchIndex(content)
	if loc == nil {
		return nil, fmt.Errorf("manifest has no version field")
	}
	var out []byte
	out = append(out, content[:loc[3]]...)
	out = append(out, version.String()...)
	out = append(out, content[loc[4]:]...)
	return out, nil
}

// nextPrerelease bumps the numeric part of a prerelease, e.g.
// 16.0.0-next.4 becomes 16.0.0-next.5
func nextPrerelease(v *semver.Version) (*semver.Version, error) {
	ident, num, found := strings.Cut(v.Prerelease(), ".")
	if !found {
		return nil, fmt.Errorf("version %s has no numbered pre-release", v)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return nil, fmt.Errorf("version %s has no numbered pre-release", v)
	}
	bumped, err := v.SetPrerelease(fmt.Sprintf("%s.%d", ident, n+1))
	if err != nil {
		return nil, err
	}
	return &bumped, nil
}

// withPrerelease returns major.minor.patch-<pre>
func withPrerelease(v *semver.Version, pre string) *semver.Version {
	out, err := semver.NewVersion(fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()))
	if err != nil {
		panic(err)
	}
	if pre == "" {
		return out
	}
	withPre, err := out.SetPrerelease(pre)
	if err != nil {
		panic(err)
	}
	return &withPre
}

// nextMinorPrerelease is the version the next branch carries after a
// branch-off, e.g. 16.1.0-next.0 once 16.0.x has been created
func nextMinorPrerelease(v *semver.Version) *semver.Version {
	bumped := v.IncMinor()
	return withPrerelease(&bumped, "next.0")
}
