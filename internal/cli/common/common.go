// Package common provides shared helper functions for CLI commands.
package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trainline.dev/trainline/internal/runtime"
)

// Run is a helper that provides a runtime context to a command's execution
// function. Commands that merge or check pull requests require the
// pullRequest configuration section.
func Run(cmd *cobra.Command, requirePullRequest bool, fn func(rt *runtime.Context) error) error {
	configPath, _ := cmd.Flags().GetString("config")
	rt, err := runtime.GetContext(cmd.Context(), runtime.Options{
		ConfigPath:         configPath,
		Flags:              cmd.Flags(),
		RequirePullRequest: requirePullRequest,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

// ParsePullRequestNumber parses "123" or "#123"
func ParsePullRequestNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pull request number %q", arg)
	}
	return n, nil
}
