package cli

import (
	"github.com/spf13/cobra"

	"trainline.dev/trainline/internal/actions/merge"
	"trainline.dev/trainline/internal/cli/common"
	"trainline.dev/trainline/internal/runtime"
)

// newPRMergeCmd creates the pr merge command
func newPRMergeCmd() *cobra.Command {
	var forceManualBranches bool

	cmd := &cobra.Command{
		Use:   "merge <pr-number>",
		Short: "Merge a pull request into every branch its target label resolves to",
		Long: `Merge a pull request into every branch its target label resolves to.

The pull request is merged into its GitHub base branch and cherry-picked into
the remaining target branches. Branches that do not apply cleanly are reported
after the others have been updated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := common.ParsePullRequestNumber(args[0])
			if err != nil {
				return err
			}
			return common.Run(cmd, true, func(rt *runtime.Context) error {
				return merge.NewTool(rt, merge.Options{
					ForceManualBranches: forceManualBranches,
				}).Merge(number)
			})
		},
	}

	cmd.Flags().BoolVar(&forceManualBranches, "force-manual-branches", false, "Select the branches to cherry-pick into instead of using the target label")

	return cmd
}
