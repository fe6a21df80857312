// Package status provides the console status bar.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// State is what the console is doing.
type State string

const (
	StateReady   State = "ready"
	StateRunning State = "running"
	StateError   State = "error"
)

// Bar is one line: the caller and their standing on the left, key hints on
// the right. It holds no tea model of its own; the app pushes state in.
type Bar struct {
	styles *styles.Styles
	hints  string

	caller    string
	privilege domain.Privilege
	balance   domain.Balance

	state State
	err   string
	width int
}

// NewBar builds a bar for caller. Nil styles or keymap use the defaults.
func NewBar(caller string, s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bindings := km.ShortHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}

	return &Bar{
		styles: s,
		hints:  strings.Join(hints, " | "),
		caller: caller,
		state:  StateReady,
		width:  80,
	}
}

// Running marks a command in flight.
func (b *Bar) Running() { b.state, b.err = StateRunning, "" }

// Ready clears any error.
func (b *Bar) Ready() { b.state, b.err = StateReady, "" }

// Fail shows err until the next Ready or Running.
func (b *Bar) Fail(err error) {
	b.state, b.err = StateError, ""
	if err != nil {
		b.err = err.Error()
	}
}

// SetStanding records the caller's privilege and balance.
func (b *Bar) SetStanding(p domain.Privilege, bal domain.Balance) {
	b.privilege, b.balance = p, bal
}

// SetWidth sets the rendered width.
func (b *Bar) SetWidth(width int) { b.width = width }

// State returns the current state.
func (b *Bar) State() State { return b.state }

// View renders the bar as a single line exactly width cells wide. Hints are
// dropped first when space runs out, then the left side is cut.
func (b *Bar) View() string {
	inner := max(b.width-b.styles.StatusBar.GetHorizontalFrameSize(), 0)
	left := lipgloss.NewStyle().MaxWidth(inner).Render(b.who() + b.activity())
	right := b.styles.Muted.Render(b.hints)

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	line := left + strings.Repeat(" ", max(inner-lipgloss.Width(left), 0))
	if gap >= 1 {
		line = left + strings.Repeat(" ", gap) + right
	}
	return b.styles.StatusBar.Width(b.width).MaxWidth(b.width).Render(line)
}

func (b *Bar) who() string {
	who := b.styles.Normal.Render(b.caller)
	switch b.privilege {
	case domain.PrivilegeSuper:
		return who + b.styles.Muted.Render(" (super)")
	case domain.PrivilegeOperator:
		return who + b.styles.Muted.Render(fmt.Sprintf(" (operator, %s credits)", b.balance))
	case domain.PrivilegeNone:
	}
	return who
}

func (b *Bar) activity() string {
	switch b.state {
	case StateRunning:
		return b.styles.Muted.Render("  running...")
	case StateError:
		msg := "Error"
		if b.err != "" {
			msg += ": " + b.err
		}
		return "  " + b.styles.Error.Render(msg)
	case StateReady:
	}
	return ""
}
