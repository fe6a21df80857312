package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, theme.Primary.Dark)
	assert.NotEmpty(t, theme.Primary.Light)
	assert.NotEqual(t, theme.Success, theme.Error)
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestNewStyles_CustomTheme(t *testing.T) {
	theme := DefaultTheme()
	theme.Primary = lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF0000"}

	s := NewStyles(theme)

	assert.Same(t, theme, s.Theme())
	assert.Equal(t, theme.Primary, s.Title.GetForeground())
}

func TestNewStyles_BoxedRolesShareBorder(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Panel.GetBorderStyle(), s.InputField.GetBorderStyle())
	assert.Equal(t, DefaultTheme().Border, s.Panel.GetBorderTopForeground())
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.Muted.Render("no grants"), "no grants")
	assert.Contains(t, s.ActiveTab.Render("Grants"), "Grants")
}
