package testhelpers

import (
	"fmt"
	"sync"

	"trainline.dev/trainline/internal/tui"
)

// FakePrompter answers prompts from a script and records the questions
type FakePrompter struct {
	// Confirms are the answers to confirmation prompts, in order
	Confirms []bool
	// Edit transforms the initial editor content; nil keeps it unchanged
	Edit func(initial string) string
	// Selection is the multi-select answer; nil keeps the defaults
	Selection []string

	mu    sync.Mutex
	Asked []string
}

var _ tui.Prompter = (*FakePrompter)(nil)

// Confirm returns the next scripted answer
func (p *FakePrompter) Confirm(message string, _ bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, message)
	if len(p.Confirms) == 0 {
		return false, fmt.Errorf("unexpected confirmation prompt: %s", message)
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}

// Editor returns the edited content
func (p *FakePrompter) Editor(message, initial string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, message)
	if p.Edit == nil {
		return initial, nil
	}
	return p.Edit(initial), nil
}

// MultiSelect returns the scripted selection
func (p *FakePrompter) MultiSelect(message string, _, defaults []string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, message)
	if p.Selection == nil {
		return defaults, nil
	}
	return p.Selection, nil
}
