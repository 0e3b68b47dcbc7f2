package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// ConfigureColors selects the color profile from the environment, honoring
// NO_COLOR and CLICOLOR_FORCE, and drops colors when stdout is not a terminal
func ConfigureColors() {
	profile := termenv.EnvColorProfile()
	if !IsTTY() && os.Getenv("CLICOLOR_FORCE") == "" {
		profile = termenv.Ascii
	}
	lipgloss.SetColorProfile(profile)
}

// IsTTY reports whether stdout is an interactive terminal
func IsTTY() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colored(color string, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(text)
}

// Red colors text red
func Red(text string) string { return colored("1", text) }

// Green colors text green
func Green(text string) string { return colored("2", text) }

// Yellow colors text yellow
func Yellow(text string) string { return colored("3", text) }

// Cyan colors text cyan
func Cyan(text string) string { return colored("6", text) }

// Dim renders text in a faint style
func Dim(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

// Bold renders text in bold
func Bold(text string) string {
	return lipgloss.NewStyle().Bold(true).Render(text)
}
