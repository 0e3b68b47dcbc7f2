package cli

import (
	"errors"
	"fmt"
	"io"

	trainerrors "trainline.dev/trainline/internal/errors"
	"trainline.dev/trainline/internal/tui"
)

// PrintError prints an error with guidance for its kind
func PrintError(w io.Writer, err error) {
	switch trainerrors.KindOf(err) {
	case trainerrors.KindUserAborted:
		fmt.Fprintln(w, tui.Yellow("Aborted."))
		return
	case trainerrors.KindConfig:
		fmt.Fprintln(w, tui.Red(err.Error()))
		fmt.Fprintln(w, tui.Dim("Check the .trainline.yaml file in the repository root, or pass --config."))
		return
	case trainerrors.KindTargetLabel:
		fmt.Fprintln(w, tui.Red(err.Error()))
		fmt.Fprintln(w, tui.Dim("Make sure the pull request has exactly one valid target label."))
		return
	case trainerrors.KindTargetBranch:
		fmt.Fprintln(w, tui.Red(err.Error()))
		fmt.Fprintln(w, tui.Dim("Update the target label or the base branch of the pull request."))
		return
	case trainerrors.KindReleaseTrains:
		fmt.Fprintln(w, tui.Red("Could not determine the active release trains: "+err.Error()))
		return
	case trainerrors.KindValidation:
		var validation *trainerrors.PullRequestValidationError
		if errors.As(err, &validation) {
			fmt.Fprintln(w, tui.Red(fmt.Sprintf("Pull request #%d failed validation:", validation.PRNumber)))
			for _, message := range validation.Messages {
				fmt.Fprintln(w, tui.Red("  - "+message))
			}
			return
		}
	case trainerrors.KindMergeConflict:
		fmt.Fprintln(w, tui.Red(err.Error()))
		fmt.Fprintln(w, tui.Dim("Branches without conflicts have been updated."))
		return
	case trainerrors.KindFatalMerge:
		fmt.Fprintln(w, tui.Red("Could not merge: "+err.Error()))
		return
	case trainerrors.KindGitCommand:
		fmt.Fprintln(w, tui.Red(err.Error()))
		fmt.Fprintln(w, tui.Dim("Run with DEBUG=1 for the full git output."))
		return
	}

	switch {
	case errors.Is(err, trainerrors.ErrUncommittedChanges):
		fmt.Fprintln(w, tui.Red("Local working repository has uncommitted changes. Please commit or stash them first."))
	case errors.Is(err, trainerrors.ErrShallowRepository):
		fmt.Fprintln(w, tui.Red("Local repository is shallow. Please fetch the full history with git fetch --unshallow."))
	default:
		fmt.Fprintln(w, tui.Red("Error: "+err.Error()))
	}
}
