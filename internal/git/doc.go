// Package git runs the git operations trainline needs against the local
// repository and the upstream remote.
//
// Client executes git subprocesses (fetch, checkout, cherry-pick, rebase,
// push) with the upstream URL passed explicitly so no remote configuration is
// required. WorkingCopy inspects the repository through go-git and records
// checkpoints that are restored once an operation completes.
package git
