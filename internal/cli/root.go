package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trainline",
		Short: "Trainline manages release trains and merges pull requests across version branches",
		Long: `Trainline manages release trains and merges pull requests across version branches.

Release trains are inferred from the version branches of the repository.
Pull requests are merged into every branch their target label resolves to.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("github-token", "", "GitHub access token (defaults to $TRAINLINE_GITHUB_TOKEN, $GITHUB_TOKEN or the gh CLI)")
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (defaults to .trainline.yaml in the repository root)")

	rootCmd.AddCommand(newPRCmd())
	rootCmd.AddCommand(newReleaseCmd())

	return rootCmd
}

// Execute runs the command line and returns the process exit code
func Execute(ctx context.Context, rootCmd *cobra.Command) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}
