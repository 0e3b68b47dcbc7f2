package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trainline.dev/trainline/internal/actions/conflicts"
	"trainline.dev/trainline/internal/cli/common"
	"trainline.dev/trainline/internal/runtime"
)

const dateLayout = "2006-01-02"

// newPRDiscoverNewConflictsCmd creates the pr discover-new-conflicts command
func newPRDiscoverNewConflictsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "discover-new-conflicts <pr-number>",
		Short: "Find open pull requests that would conflict once a pull request is merged",
		Long: `Find open pull requests that would conflict once a pull request is merged.

Every open pull request against the same base branch that was updated after
--date and currently merges cleanly is rebased onto the result of merging the
given pull request. The previously checked out branch is restored afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := common.ParsePullRequestNumber(args[0])
			if err != nil {
				return err
			}
			updatedAfter, err := parseUpdatedAfter(date, time.Now())
			if err != nil {
				return err
			}
			return common.Run(cmd, false, func(rt *runtime.Context) error {
				found, err := conflicts.NewScanner(rt).DiscoverNewConflicts(rt, number, updatedAfter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(found) == 0 {
					fmt.Fprintf(out, "No new conflicting pull requests found after #%d merges.\n", number)
					return nil
				}
				fmt.Fprintf(out, "%d pull request(s) will conflict after #%d merges:\n", len(found), number)
				for _, pr := range found {
					fmt.Fprintf(out, "  - #%d: %s %s\n", pr.Number, pr.Title, pr.URL)
				}
				return fmt.Errorf("%d pull request(s) will conflict after #%d merges", len(found), number)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Only check pull requests updated after this date (YYYY-MM-DD, defaults to 30 days ago)")

	return cmd
}

// parseUpdatedAfter parses the --date flag, defaulting to 30 days before now
func parseUpdatedAfter(date string, now time.Time) (time.Time, error) {
	if date == "" {
		return now.AddDate(0, 0, -30), nil
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}
