package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tollgate/internal/core/domain"
)

func newWideBar(caller string) *Bar {
	bar := NewBar(caller, nil, nil)
	bar.SetWidth(120)
	return bar
}

func TestNewBar(t *testing.T) {
	bar := NewBar("alice", styles.DefaultStyles(), keymap.DefaultKeyMap())

	require.NotNil(t, bar)
	assert.Equal(t, StateReady, bar.State())
	assert.Equal(t, 80, bar.width)
	assert.Contains(t, bar.View(), "alice")
}

func TestBar_Standing(t *testing.T) {
	tests := []struct {
		name      string
		privilege domain.Privilege
		balance   domain.Balance
		want      string
		notWant   string
	}{
		{"super", domain.PrivilegeSuper, domain.UnlimitedBalance(), "(super)", "credits"},
		{"operator", domain.PrivilegeOperator, domain.Balance{Credits: 42}, "(operator, 42 credits)", "super"},
		{"subject", domain.PrivilegeNone, domain.Balance{}, "alice", "credits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := newWideBar("alice")
			bar.SetStanding(tt.privilege, tt.balance)

			view := bar.View()
			assert.Contains(t, view, tt.want)
			assert.NotContains(t, view, tt.notWant)
		})
	}
}

func TestBar_States(t *testing.T) {
	bar := newWideBar("op-1")

	bar.Running()
	assert.Equal(t, StateRunning, bar.State())
	assert.Contains(t, bar.View(), "running...")

	bar.Fail(nil)
	assert.Equal(t, StateError, bar.State())
	assert.Contains(t, bar.View(), "Error")

	bar.Fail(errors.New("store unavailable"))
	assert.Contains(t, bar.View(), "Error: store unavailable")

	bar.Running()
	assert.NotContains(t, bar.View(), "store unavailable")

	bar.Ready()
	assert.Equal(t, StateReady, bar.State())
	assert.NotContains(t, bar.View(), "Error")
}

func TestBar_Hints(t *testing.T) {
	view := newWideBar("op-1").View()
	assert.Contains(t, view, "enter: run")
	assert.Contains(t, view, "ctrl+c: quit")
	assert.Contains(t, view, " | ")
}

func TestBar_SingleLine(t *testing.T) {
	for _, width := range []int{40, 80, 120, 200} {
		t.Run(fmt.Sprintf("width %d", width), func(t *testing.T) {
			bar := NewBar("op-1", nil, nil)
			bar.SetWidth(width)
			bar.SetStanding(domain.PrivilegeOperator, domain.Balance{Credits: 1000})
			bar.Fail(errors.New("store unavailable"))

			view := bar.View()
			assert.NotContains(t, view, "\n")
			assert.Equal(t, width, lipgloss.Width(view))
		})
	}
}

func TestBar_NarrowDropsHints(t *testing.T) {
	bar := NewBar("op-1", nil, nil)
	bar.SetWidth(30)

	view := bar.View()
	assert.NotContains(t, view, "\n")
	assert.Contains(t, view, "op-1")
	assert.NotContains(t, view, "ctrl+c: quit")
}
