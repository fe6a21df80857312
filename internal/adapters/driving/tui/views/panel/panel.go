// Package panel renders the console's grant and token listings.
package panel

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// expiringWithin marks grants that lapse soon.
const expiringWithin = time.Hour

const timeLayout = "2006-01-02 15:04"

// View shows one listing at a time, switched by tabs.
type View struct {
	styles *styles.Styles
	now    func() time.Time

	active   messages.Panel
	snapshot messages.Snapshot
	loaded   bool

	width  int
	height int
}

// NewView creates a panel view showing grants.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		now:    time.Now,
		active: messages.PanelGrants,
		width:  80,
		height: 10,
	}
}

// SetSnapshot replaces the data shown.
func (v *View) SetSnapshot(snap messages.Snapshot) {
	v.snapshot = snap
	v.loaded = true
}

// Active returns the panel shown.
func (v *View) Active() messages.Panel {
	return v.active
}

// Next switches to the following panel, wrapping around.
func (v *View) Next() {
	panels := messages.Panels()
	v.active = panels[(int(v.active)+1)%len(panels)]
}

// Prev switches to the preceding panel, wrapping around.
func (v *View) Prev() {
	panels := messages.Panels()
	v.active = panels[(int(v.active)+len(panels)-1)%len(panels)]
}

// SetDimensions sets the space available to the panel.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// View renders the tabs and the active listing.
func (v *View) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, v.renderTabs(), v.renderBody())
}

func (v *View) renderTabs() string {
	tabs := make([]string, 0, len(messages.Panels()))
	for _, p := range messages.Panels() {
		label := fmt.Sprintf("%s (%d)", p, v.count(p))
		if p == v.active {
			tabs = append(tabs, v.styles.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, v.styles.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (v *View) count(p messages.Panel) int {
	switch p {
	case messages.PanelGrants:
		return len(v.snapshot.Grants)
	case messages.PanelTokens:
		return len(v.snapshot.Tokens)
	}
	return 0
}

func (v *View) renderBody() string {
	if !v.loaded {
		return v.styles.Muted.Render("Loading...")
	}
	switch v.active {
	case messages.PanelGrants:
		return v.renderGrants()
	case messages.PanelTokens:
		return v.renderTokens()
	}
	return ""
}

func (v *View) renderGrants() string {
	if msg, ok := v.listingError(v.snapshot.GrantsErr); ok {
		return msg
	}
	if len(v.snapshot.Grants) == 0 {
		return v.styles.Muted.Render("No active grants.")
	}

	now := v.now()
	grants := v.visible(len(v.snapshot.Grants))
	rows := make([][]string, 0, grants)
	for _, g := range v.snapshot.Grants[:grants] {
		rows = append(rows, []string{
			g.SubjectID,
			g.Plan,
			g.ValidUntil.Local().Format(timeLayout),
			humanize.RelTime(g.ValidUntil, now, "ago", "left"),
		})
	}

	return v.renderTable([]string{"Subject", "Plan", "Valid until", "Remaining"}, rows, func(row int) lipgloss.Style {
		if v.snapshot.Grants[row].Remaining(now) <= expiringWithin {
			return v.styles.Expiring
		}
		return v.styles.Normal
	}) + v.more(len(v.snapshot.Grants), grants)
}

func (v *View) renderTokens() string {
	if msg, ok := v.listingError(v.snapshot.TokensErr); ok {
		return msg
	}
	if len(v.snapshot.Tokens) == 0 {
		return v.styles.Muted.Render("No unredeemed tokens.")
	}

	tokens := v.visible(len(v.snapshot.Tokens))
	rows := make([][]string, 0, tokens)
	for _, tok := range v.snapshot.Tokens[:tokens] {
		rows = append(rows, []string{
			tok.Token,
			tok.Plan,
			tok.IssuedBy,
			tok.IssuedAt.Local().Format(timeLayout),
		})
	}

	return v.renderTable([]string{"Token", "Plan", "Issued by", "Issued at"}, rows, func(int) lipgloss.Style {
		return v.styles.Normal
	}) + v.more(len(v.snapshot.Tokens), tokens)
}

// listingError renders a failed listing. Missing privilege is expected for
// most callers and is shown as a hint rather than an error.
func (v *View) listingError(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, domain.ErrUnauthorized):
		return v.styles.Muted.Render("Only privileged operators can list this."), true
	default:
		return v.styles.Error.Render("Could not load: " + err.Error()), true
	}
}

// visible returns how many of n rows fit, leaving room for the table
// border, header and the "more" line.
func (v *View) visible(n int) int {
	room := v.height - 5
	if room < 1 {
		room = 1
	}
	return min(n, room)
}

func (v *View) more(total, shown int) string {
	if total <= shown {
		return ""
	}
	return "\n" + v.styles.Muted.Render(fmt.Sprintf("... and %d more", total-shown))
}

func (v *View) renderTable(headers []string, rows [][]string, rowStyle func(row int) lipgloss.Style) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(v.styles.Theme().Border)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return v.styles.Header.Padding(0, 1)
			}
			return rowStyle(row).Padding(0, 1)
		})
	return strings.TrimRight(t.String(), "\n")
}
