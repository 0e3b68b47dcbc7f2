// Package merge merges pull requests into their target branches.
//
// A pull request is merged into the branch it was opened against and then
// cherry-picked into every other branch its target label resolves to.
// Merging happens either through the GitHub merge API or locally with an
// autosquash rebase, selected by the pullRequest.githubApiMerge
// configuration.
package merge
