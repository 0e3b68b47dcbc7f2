package cli

import (
	"github.com/spf13/cobra"

	"trainline.dev/trainline/internal/actions/checkout"
	"trainline.dev/trainline/internal/cli/common"
	"trainline.dev/trainline/internal/runtime"
)

// newPRCheckoutCmd creates the pr checkout command
func newPRCheckoutCmd() *cobra.Command {
	var (
		takeover bool
		target   string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "checkout <pr-number>",
		Short: "Check out a pull request locally",
		Long: `Check out a pull request locally.

By default the pull request head is checked out detached so amendments can be
pushed back to it. --takeover checks it out on a new local branch instead, and
--target replays its commits onto another branch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := common.ParsePullRequestNumber(args[0])
			if err != nil {
				return err
			}
			return common.Run(cmd, false, func(rt *runtime.Context) error {
				_, err := checkout.Checkout(rt, number, checkout.Options{
					Takeover:                      takeover,
					Target:                        target,
					AllowIfMaintainerCannotModify: force,
				})
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&takeover, "takeover", false, "Check out the pull request on a new local branch")
	cmd.Flags().StringVar(&target, "target", "", "Replay the pull request onto this branch")
	cmd.Flags().BoolVar(&force, "force", false, "Check out even if maintainers cannot push to the pull request")
	cmd.MarkFlagsMutuallyExclusive("takeover", "target")

	return cmd
}
