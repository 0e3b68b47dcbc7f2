package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trainline.dev/trainline/internal/actions/merge"
	"trainline.dev/trainline/internal/cli/common"
	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/runtime"
)

// newPRCheckTargetBranchesCmd creates the pr check-target-branches command
func newPRCheckTargetBranchesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-target-branches <pr-number>",
		Short: "Print the branches a pull request would be merged into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := common.ParsePullRequestNumber(args[0])
			if err != nil {
				return err
			}
			return common.Run(cmd, false, func(rt *runtime.Context) error {
				pr, err := rt.GitHub.GetPullRequest(rt, number)
				if err != nil {
					return err
				}
				if pr == nil {
					return fmt.Errorf("pull request #%d: %w", number, trainerrors.ErrPullRequestNotFound)
				}
				_, branches, label, err := merge.TargetBranches(rt, pr)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pull request #%d (%s) will merge into: %s\n",
					number, label.Name(), strings.Join(branches, ", "))
				return nil
			})
		},
	}

	return cmd
}
