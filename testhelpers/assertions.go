// Package testhelpers provides testing utilities for trainline, including
// throwaway repository scenes, a mock GitHub API, and custom assertions.
package testhelpers

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Must panics if err is not nil, otherwise returns val. Useful in test setup
// where errors are not expected.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// ExpectBranches asserts the local branches of the repository, in any order
func ExpectBranches(t *testing.T, repo *GitRepo, expected []string) {
	t.Helper()

	output, err := repo.RunGitCommandAndGetOutput("for-each-ref", "refs/heads/", "--format=%(refname:short)")
	require.NoError(t, err, "Failed to list branches")

	branches := []string{}
	for _, b := range strings.Split(output, "\n") {
		if b = strings.TrimSpace(b); b != "" {
			branches = append(branches, b)
		}
	}

	want := append([]string(nil), expected...)
	sort.Strings(branches)
	sort.Strings(want)
	require.Equal(t, want, branches, "Branches do not match")
}

// ExpectCurrentBranch asserts the checked out branch. An empty name expects a
// detached HEAD.
func ExpectCurrentBranch(t *testing.T, repo *GitRepo, expected string) {
	t.Helper()

	branch, err := repo.CurrentBranchName()
	require.NoError(t, err)
	require.Equal(t, expected, branch, "Unexpected current branch")
}

// ExpectCommits asserts the newest commit subjects of a revision range
func ExpectCommits(t *testing.T, repo *GitRepo, revisionRange string, expected []string) {
	t.Helper()

	messages, err := repo.CommitMessages(revisionRange)
	require.NoError(t, err, "Failed to list commits")
	if len(messages) < len(expected) {
		require.Fail(t, "Not enough commits", "Expected %d commits, got %d", len(expected), len(messages))
		return
	}

	subjects := make([]string, 0, len(expected))
	for _, m := range messages[:len(expected)] {
		subjects = append(subjects, strings.SplitN(m, "\n", 2)[0])
	}
	require.Equal(t, expected, subjects, "Commits do not match")
}
