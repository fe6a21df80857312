// Package input provides the console command prompt.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/styles"
)

// historySize bounds how many submitted lines are remembered.
const historySize = 50

// Prompt wraps a bubbles textinput with command history.
type Prompt struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	// cursor indexes history while recalling; len(history) means the live line.
	cursor int
	draft  string
}

// NewPrompt creates a focused command prompt.
func NewPrompt(s *styles.Styles) *Prompt {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "issue 1 day, redeem <token>, status, help..."
	ti.Prompt = "/"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return &Prompt{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blinking.
func (p *Prompt) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the prompt.
func (p *Prompt) View() string {
	return p.styles.InputField.Render(p.textinput.View())
}

// Value returns the current input value.
func (p *Prompt) Value() string {
	return p.textinput.Value()
}

// SetValue sets the input value.
func (p *Prompt) SetValue(value string) {
	p.textinput.SetValue(value)
	p.textinput.CursorEnd()
}

// Submit returns the current line, records it in history and clears the
// input. Blank lines are not recorded.
func (p *Prompt) Submit() string {
	line := p.textinput.Value()
	if line != "" {
		if n := len(p.history); n == 0 || p.history[n-1] != line {
			p.history = append(p.history, line)
		}
		if len(p.history) > historySize {
			p.history = p.history[len(p.history)-historySize:]
		}
	}
	p.cursor = len(p.history)
	p.draft = ""
	p.textinput.Reset()
	return line
}

// Previous recalls the line before the one shown.
func (p *Prompt) Previous() {
	if p.cursor == 0 {
		return
	}
	if p.cursor == len(p.history) {
		p.draft = p.textinput.Value()
	}
	p.cursor--
	p.SetValue(p.history[p.cursor])
}

// Next recalls the line after the one shown, ending at the unsent draft.
func (p *Prompt) Next() {
	if p.cursor >= len(p.history) {
		return
	}
	p.cursor++
	if p.cursor == len(p.history) {
		p.SetValue(p.draft)
		return
	}
	p.SetValue(p.history[p.cursor])
}

// History returns the remembered lines, oldest first.
func (p *Prompt) History() []string {
	return p.history
}

// Focused returns whether the input is focused.
func (p *Prompt) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the width of the prompt.
func (p *Prompt) SetWidth(width int) {
	p.width = width
	// Account for border and padding
	inputWidth := width - lipgloss.Width(p.styles.InputField.Render("")) - 2
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.textinput.Width = inputWidth
}

// Width returns the current width.
func (p *Prompt) Width() int {
	return p.width
}

// Reset clears the input.
func (p *Prompt) Reset() {
	p.textinput.Reset()
}
