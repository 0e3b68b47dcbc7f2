package tui

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ScanProgress reports progress of a sequential scan over pull requests
type ScanProgress interface {
	Start(total int)
	Step(index int, description string)
	Finish()
}

// NewScanProgress returns a spinner on terminals and plain log lines otherwise
func NewScanProgress(splog *Splog) ScanProgress {
	if IsTTY() && os.Getenv("TRAINLINE_NO_INTERACTIVE") == "" {
		return &SpinnerScanProgress{}
	}
	return &PlainScanProgress{splog: splog}
}

// PlainScanProgress logs one line per step
type PlainScanProgress struct {
	splog *Splog
	total int
}

// Start records the number of steps
func (p *PlainScanProgress) Start(total int) {
	p.total = total
}

// Step logs the step being worked on
func (p *PlainScanProgress) Step(index int, description string) {
	p.splog.Debug("[%d/%d] %s", index+1, p.total, description)
}

// Finish is a no-op for plain output
func (p *PlainScanProgress) Finish() {}

type scanStepMsg struct {
	index       int
	description string
}

type scanDoneMsg struct{}

// scanModel is the bubbletea model behind SpinnerScanProgress
type scanModel struct {
	spinner     spinner.Model
	total       int
	index       int
	description string
	done        bool
}

func newScanModel(total int) scanModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	return scanModel{spinner: s, total: total}
}

func (m scanModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case scanStepMsg:
		m.index = msg.index
		m.description = msg.description
		return m, nil
	case scanDoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m scanModel) View() string {
	if m.done || m.total == 0 {
		return ""
	}
	return fmt.Sprintf("%s %s %s\n", m.spinner.View(), m.description,
		Dim(fmt.Sprintf("(%d/%d)", m.index+1, m.total)))
}

// SpinnerScanProgress renders a spinner with the current step on stderr
type SpinnerScanProgress struct {
	program *tea.Program
	done    chan struct{}
}

// Start launches the spinner
func (p *SpinnerScanProgress) Start(total int) {
	p.program = tea.NewProgram(newScanModel(total), tea.WithInput(nil), tea.WithOutput(os.Stderr))
	p.done = make(chan struct{})
	go func() {
		_, _ = p.program.Run()
		close(p.done)
	}()
}

// Step updates the current step
func (p *SpinnerScanProgress) Step(index int, description string) {
	if p.program != nil {
		p.program.Send(scanStepMsg{index: index, description: description})
	}
}

// Finish stops the spinner and waits for the terminal to be released
func (p *SpinnerScanProgress) Finish() {
	if p.program == nil {
		return
	}
	p.program.Send(scanDoneMsg{})
	<-p.done
	p.program = nil
}
