package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/styles"
)

// theme is shared with the console so tables and panels match.
var theme = styles.DefaultTheme()

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(theme.Primary).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle   = cellStyle.Foreground(theme.Muted)
	successStyle = cellStyle.Foreground(theme.Success)
	errorStyle   = cellStyle.Foreground(theme.Error)
)

// cellStyler picks the style of a body cell.
type cellStyler func(row, col int) lipgloss.Style

// renderTable draws headers and rows as a rounded table. style may be nil.
func renderTable(headers []string, rows [][]string, style cellStyler) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if style != nil {
				return style(row, col)
			}
			return cellStyle
		})
	return t.String()
}
