// Package styles holds the console palette and the lipgloss styles built
// from it. The CLI tables share the same palette.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette. Colours adapt to light and dark terminals.
type Theme struct {
	Primary    lipgloss.AdaptiveColor
	Secondary  lipgloss.AdaptiveColor
	Foreground lipgloss.AdaptiveColor
	Muted      lipgloss.AdaptiveColor
	Success    lipgloss.AdaptiveColor
	Warning    lipgloss.AdaptiveColor
	Error      lipgloss.AdaptiveColor
	Border     lipgloss.AdaptiveColor
	Bar        lipgloss.AdaptiveColor
}

func adaptive(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// DefaultTheme is amber on slate, the colours of a toll booth.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    adaptive("#B45309", "#F59E0B"),
		Secondary:  adaptive("#0F766E", "#2DD4BF"),
		Foreground: adaptive("#1E293B", "#E2E8F0"),
		Muted:      adaptive("#64748B", "#94A3B8"),
		Success:    adaptive("#15803D", "#4ADE80"),
		Warning:    adaptive("#C2410C", "#FB923C"),
		Error:      adaptive("#B91C1C", "#F87171"),
		Border:     adaptive("#CBD5E1", "#475569"),
		Bar:        adaptive("#E2E8F0", "#1E293B"),
	}
}

// Styles are the console's rendered roles.
type Styles struct {
	theme *Theme

	Title lipgloss.Style

	// Tab and ActiveTab render the panel switcher.
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style

	// Header is a panel's column header row.
	Header lipgloss.Style

	Normal  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style

	// Expiring marks grants close to their expiry.
	Expiring lipgloss.Style

	// Caller echoes submitted command lines in the transcript.
	Caller lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Panel      lipgloss.Style
}

// NewStyles derives every role from theme. Nil means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.TerminalColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	boxed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	return &Styles{
		theme: theme,

		Title:     fg(theme.Primary).Bold(true),
		Tab:       fg(theme.Muted).Padding(0, 1),
		ActiveTab: fg(theme.Bar).Background(theme.Primary).Bold(true).Padding(0, 1),
		Header:    fg(theme.Secondary).Bold(true),

		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Error:    fg(theme.Error),
		Success:  fg(theme.Success),
		Expiring: fg(theme.Warning),
		Caller:   fg(theme.Secondary).Bold(true),

		InputField: boxed,
		Panel:      boxed,
		StatusBar:  fg(theme.Muted).Background(theme.Bar).Padding(0, 1),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
