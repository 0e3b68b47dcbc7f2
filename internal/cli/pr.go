package cli

import (
	"github.com/spf13/cobra"
)

// newPRCmd creates the pr command group
func newPRCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Merge, check and check out pull requests",
	}

	cmd.AddCommand(newPRMergeCmd())
	cmd.AddCommand(newPRCheckTargetBranchesCmd())
	cmd.AddCommand(newPRDiscoverNewConflictsCmd())
	cmd.AddCommand(newPRCheckoutCmd())

	return cmd
}
