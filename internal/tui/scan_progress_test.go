package tui

import (
	"bytes"
	"os"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestScanModel(t *testing.T) {
	t.Run("shows the current step", func(t *testing.T) {
		var m tea.Model = newScanModel(3)
		m, _ = m.Update(scanStepMsg{index: 1, description: "Checking #42"})
		require.Contains(t, m.View(), "Checking #42")
		require.Contains(t, m.View(), "(2/3)")
	})

	t.Run("quits when done", func(t *testing.T) {
		var m tea.Model = newScanModel(1)
		m, cmd := m.Update(scanDoneMsg{})
		require.NotNil(t, cmd)
		require.Empty(t, m.View())
	})
}

func TestPlainScanProgress(t *testing.T) {
	t.Setenv("DEBUG", "1")
	var out bytes.Buffer
	p := &PlainScanProgress{splog: NewSplogWithWriter(&out)}

	p.Start(2)
	p.Step(0, "Checking #1")
	p.Step(1, "Checking #2")
	p.Finish()

	require.Equal(t, "[1/2] Checking #1\n[2/2] Checking #2\n", out.String())
}

func TestSplog(t *testing.T) {
	var out bytes.Buffer
	splog := NewSplogWithWriter(&out)

	splog.Info("merging #%d", 12)
	splog.Warn("careful")
	splog.Debug("hidden unless DEBUG is set")

	require.Contains(t, out.String(), "merging #12\n")
	require.Contains(t, out.String(), "⚠️  careful\n")
	if os.Getenv("DEBUG") != "" {
		return
	}
	require.NotContains(t, out.String(), "hidden")
}
