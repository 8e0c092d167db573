package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// prompt is the one-line input bar used for quick edits. kind tells the
// owning screen what to do with the value.
type prompt struct {
	kind   int
	target int
	label  string
	input  textinput.Model
}

func newPrompt(kind, target int, label, placeholder, value string) (*prompt, tea.Cmd) {
	p := &prompt{kind: kind, target: target, label: label, input: newInput(placeholder, 200)}
	p.input.SetValue(value)
	p.input.CursorEnd()
	return p, p.input.Focus()
}

// update returns submitted=true on enter and cancelled=true on esc
func (p *prompt) update(msg tea.Msg) (cmd tea.Cmd, submitted, cancelled bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			return nil, true, false
		case "esc":
			return nil, false, true
		}
	}
	p.input, cmd = p.input.Update(msg)
	return cmd, false, false
}

func (p *prompt) value() string {
	return p.input.Value()
}

func (p *prompt) view(width int) string {
	p.input.Width = width - lipgloss.Width(p.label) - 8
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Width(width).
		Render(selectedStyle.Render(p.label) + " " + p.input.View())
}

// pickOption is one picker entry; a nil id stands for "none"
type pickOption struct {
	label string
	id    *int
}

// picker is the one-line chooser used to reassign a task
type picker struct {
	kind    int
	target  int
	label   string
	options []pickOption
	choice  int
}

// newPicker starts on the option whose id equals current
func newPicker(kind, target int, label string, options []pickOption, current *int) *picker {
	p := &picker{kind: kind, target: target, label: label, options: options}
	for i, opt := range options {
		if (opt.id == nil && current == nil) || (opt.id != nil && current != nil && *opt.id == *current) {
			p.choice = i
			break
		}
	}
	return p
}

// update returns the option chosen with enter, or cancelled=true on esc
func (p *picker) update(key string) (chosen *pickOption, cancelled bool) {
	n := len(p.options)
	switch key {
	case "left", "up", "shift+tab":
		if n > 0 {
			p.choice = (p.choice + n - 1) % n
		}
	case "right", "down", "tab":
		if n > 0 {
			p.choice = (p.choice + 1) % n
		}
	case "enter":
		if n > 0 {
			opt := p.options[p.choice]
			return &opt, false
		}
	case "esc":
		return nil, true
	}
	return nil, false
}

func (p *picker) view(width int) string {
	current := "(nothing to choose)"
	if len(p.options) > 0 {
		current = fmt.Sprintf("‹ %s ›  %d/%d", p.options[p.choice].label, p.choice+1, len(p.options))
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Background(lipgloss.Color(ColorBorder)).
		Padding(0, 1).
		Width(width).
		Render(selectedStyle.Render(p.label) + " " + truncate(current, width-lipgloss.Width(p.label)-6))
}
