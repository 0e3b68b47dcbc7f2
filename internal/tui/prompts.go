package tui

import (
	"errors"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	trainerrors "trainline.dev/trainline/internal/errors"
)

// Prompter asks the operator questions
type Prompter interface {
	Confirm(message string, defaultValue bool) (bool, error)
	Editor(message, initial string) (string, error)
	MultiSelect(message string, options, defaults []string) ([]string, error)
}

// SurveyPrompter prompts on the terminal
type SurveyPrompter struct{}

var _ Prompter = SurveyPrompter{}

// checkInteractiveAllowed returns an error if interactive prompts are
// disabled through TRAINLINE_NO_INTERACTIVE
func checkInteractiveAllowed() error {
	if os.Getenv("TRAINLINE_NO_INTERACTIVE") != "" {
		return trainerrors.ErrInteractiveDisabled
	}
	return nil
}

func askOne(prompt survey.Prompt, response any) error {
	if err := checkInteractiveAllowed(); err != nil {
		return err
	}
	if err := survey.AskOne(prompt, response); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return trainerrors.ErrUserAborted
		}
		return err
	}
	return nil
}

// Confirm asks a yes/no question
func (SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	answer := defaultValue
	err := askOne(&survey.Confirm{Message: message, Default: defaultValue}, &answer)
	return answer, err
}

// Editor opens the operator's editor with initial content and returns the result
func (SurveyPrompter) Editor(message, initial string) (string, error) {
	var answer string
	err := askOne(&survey.Editor{
		Message:       message,
		Default:       initial,
		HideDefault:   true,
		AppendDefault: true,
		FileName:      "*.txt",
	}, &answer)
	return answer, err
}

// MultiSelect lets the operator pick any number of options
func (SurveyPrompter) MultiSelect(message string, options, defaults []string) ([]string, error) {
	var answer []string
	err := askOne(&survey.MultiSelect{
		Message: message,
		Options: options,
		Default: defaults,
	}, &answer)
	return answer, err
}
