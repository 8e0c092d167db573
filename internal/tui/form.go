package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formField is either a text input or, with options set, a choice cycled
// with left/right
type formField struct {
	label   string
	input   textinput.Model
	options []string
	choice  int
}

// cursorMode applies to every input; reduced motion makes it static
var cursorMode = cursor.CursorBlink

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 50
	in.Prompt = "› "
	in.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	in.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))
	in.Cursor.SetMode(cursorMode)
	return in
}

func textField(label, placeholder string, limit int) formField {
	return formField{label: label, input: newInput(placeholder, limit)}
}

func passwordField(label string) formField {
	f := textField(label, "", 128)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func choiceField(label string, options ...string) formField {
	return formField{label: label, options: options}
}

func (f formField) isChoice() bool {
	return f.options != nil
}

// form is a vertical list of fields. Tab and arrows move focus, enter on
// the last field (or ctrl+s anywhere) submits.
type form struct {
	fields []formField
	focus  int
	width  int
}

func newForm(fields ...formField) form {
	f := form{fields: fields}
	if !f.fields[0].isChoice() {
		f.fields[0].input.Focus()
	}
	return f
}

// Init starts the cursor blinking on the focused input
func (f form) Init() tea.Cmd {
	return textinput.Blink
}

func (f form) Value(i int) string {
	return strings.TrimSpace(f.fields[i].input.Value())
}

// Raw returns the value without trimming, for passwords
func (f form) Raw(i int) string {
	return f.fields[i].input.Value()
}

func (f form) Choice(i int) int {
	return f.fields[i].choice
}

func (f *form) SetValue(i int, v string) {
	f.fields[i].input.SetValue(v)
}

// SetOptions replaces a choice field's options, keeping the choice in range
func (f *form) SetOptions(i int, options []string) {
	f.fields[i].options = options
	if f.fields[i].choice >= len(options) {
		f.fields[i].choice = 0
	}
}

func (f *form) SetChoice(i, choice int) {
	if choice >= 0 && choice < len(f.fields[i].options) {
		f.fields[i].choice = choice
	}
}

// Reset clears every text input and moves focus to the first field
func (f *form) Reset() tea.Cmd {
	for i := range f.fields {
		f.fields[i].input.SetValue("")
	}
	return f.move(-f.focus)
}

func (f *form) SetWidth(width int) {
	f.width = width
	w := width - 8
	if w < 20 {
		w = 20
	}
	if w > 80 {
		w = 80
	}
	for i := range f.fields {
		f.fields[i].input.Width = w
	}
}

func (f *form) move(delta int) tea.Cmd {
	f.fields[f.focus].input.Blur()
	f.focus = (f.focus + delta + len(f.fields)) % len(f.fields)
	if f.fields[f.focus].isChoice() {
		return nil
	}
	return f.fields[f.focus].input.Focus()
}

// Update handles a key; submitted is true when the form should be sent
func (f form) Update(msg tea.Msg) (form, tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		cur := &f.fields[f.focus]
		if !cur.isChoice() {
			cur.input, cmd = cur.input.Update(msg)
		}
		return f, cmd, false
	}

	cur := &f.fields[f.focus]
	switch key.String() {
	case "ctrl+s":
		return f, nil, true
	case "enter":
		if f.focus == len(f.fields)-1 {
			return f, nil, true
		}
		return f, f.move(1), false
	case "tab", "down":
		return f, f.move(1), false
	case "shift+tab", "up":
		return f, f.move(-1), false
	case "left", "right":
		if cur.isChoice() && len(cur.options) > 0 {
			step := 1
			if key.String() == "left" {
				step = len(cur.options) - 1
			}
			cur.choice = (cur.choice + step) % len(cur.options)
			return f, nil, false
		}
	}

	var cmd tea.Cmd
	if !cur.isChoice() {
		cur.input, cmd = cur.input.Update(msg)
	}
	return f, cmd, false
}

// View renders every field with the focused label highlighted
func (f form) View() string {
	var b strings.Builder
	for i, fld := range f.fields {
		label := labelStyle.Render(fld.label)
		if i == f.focus {
			label = selectedStyle.Render(fld.label)
		}
		b.WriteString(label)
		b.WriteString("\n")
		if fld.isChoice() {
			b.WriteString(f.renderChoice(fld, i == f.focus))
		} else {
			b.WriteString(fld.input.View())
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f form) renderChoice(fld formField, focused bool) string {
	if len(fld.options) == 0 {
		return mutedStyle.Render("  (nothing to choose)")
	}
	parts := make([]string, len(fld.options))
	for i, opt := range fld.options {
		style := lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color(ColorSecondaryText))
		if i == fld.choice {
			style = style.Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true)
			if focused {
				style = style.Background(lipgloss.Color(ColorAccentMain))
			}
		}
		parts[i] = style.Render(opt)
	}
	return "  " + lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}
