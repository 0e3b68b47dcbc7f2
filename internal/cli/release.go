package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trainline.dev/trainline/internal/actions/release"
	"trainline.dev/trainline/internal/cli/common"
	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/runtime"
)

// newReleaseCmd creates the release command group
func newReleaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Inspect the release trains and move them forward",
	}

	cmd.AddCommand(newReleaseInfoCmd())
	cmd.AddCommand(newReleaseActionsCmd())
	cmd.AddCommand(newReleasePerformCmd())

	return cmd
}

// newReleaseInfoCmd creates the release info command
func newReleaseInfoCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the active release trains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "text" && output != "yaml" {
				return fmt.Errorf("invalid --output %q, expected text or yaml", output)
			}
			return common.Run(cmd, false, func(rt *runtime.Context) error {
				active, err := rt.FetchActiveReleaseTrains()
				if err != nil {
					return err
				}
				summary := release.Summarize(active, rt.Config)
				if output == "yaml" {
					out, err := summary.YAML()
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(out)
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), summary.Text())
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text or yaml")

	return cmd
}

// newReleaseActionsCmd creates the release actions command
func newReleaseActionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "actions",
		Short: "List the release actions available for the active release trains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, false, func(rt *runtime.Context) error {
				active, err := rt.FetchActiveReleaseTrains()
				if err != nil {
					return err
				}
				for _, action := range release.ActiveActions(active) {
					marker := " "
					if _, ok := action.(release.Performer); ok {
						marker = "*"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %-34s %s\n", marker, action.ID(), action.Describe(active))
				}
				return nil
			})
		},
	}
}

// newReleasePerformCmd creates the release perform command
func newReleasePerformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "perform <action-id>",
		Short: "Perform a release action that moves branches",
		Long: `Perform a release action that moves branches.

Only actions marked with * by "release actions" can be performed. Actions that
publish packages are listed for information only.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, false, func(rt *runtime.Context) error {
				active, err := rt.FetchActiveReleaseTrains()
				if err != nil {
					return err
				}
				action, err := release.Find(active, args[0])
				if err != nil {
					return err
				}
				performer, ok := action.(release.Performer)
				if !ok {
					return fmt.Errorf("release action %q publishes packages and cannot be performed by trainline", action.ID())
				}

				rt.Splog.Info("%s", action.Describe(active))
				ok, err = rt.Prompter.Confirm("Do you want to proceed?", false)
				if err != nil {
					return err
				}
				if !ok {
					return trainerrors.ErrUserAborted
				}
				return performer.Perform(rt, active)
			})
		},
	}
}
