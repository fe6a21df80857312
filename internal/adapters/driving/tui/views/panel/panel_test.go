package panel

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tollgate/internal/core/domain"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestView() *View {
	v := NewView(nil)
	v.now = func() time.Time { return epoch }
	v.SetDimensions(100, 20)
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil)

	require.NotNil(t, v)
	assert.Equal(t, messages.PanelGrants, v.Active())
	assert.Contains(t, v.View(), "Loading...")
}

func TestView_Switching(t *testing.T) {
	v := newTestView()

	v.Next()
	assert.Equal(t, messages.PanelTokens, v.Active())
	v.Next()
	assert.Equal(t, messages.PanelGrants, v.Active())
	v.Prev()
	assert.Equal(t, messages.PanelTokens, v.Active())
	v.Prev()
	assert.Equal(t, messages.PanelGrants, v.Active())
}

func TestView_Grants(t *testing.T) {
	v := newTestView()
	v.SetSnapshot(messages.Snapshot{
		Grants: []domain.AccessGrant{
			{SubjectID: "alice", Plan: "1 day", ValidUntil: epoch.Add(30 * time.Minute)},
			{SubjectID: "bob", Plan: "1 week", ValidUntil: epoch.Add(7 * 24 * time.Hour)},
		},
	})

	out := v.View()
	assert.Contains(t, out, "Grants (2)")
	assert.Contains(t, out, "Tokens (0)")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "1 week")
	assert.Contains(t, out, "left")
}

func TestView_Empty(t *testing.T) {
	v := newTestView()
	v.SetSnapshot(messages.Snapshot{})

	assert.Contains(t, v.View(), "No active grants.")
	v.Next()
	assert.Contains(t, v.View(), "No unredeemed tokens.")
}

func TestView_Tokens(t *testing.T) {
	v := newTestView()
	v.SetSnapshot(messages.Snapshot{
		Tokens: []domain.LicenseToken{
			{Token: "3F9A0C1D2E4B5A68", Plan: "2 hours", IssuedBy: "op-1", IssuedAt: epoch},
		},
	})
	v.Next()

	out := v.View()
	assert.Contains(t, out, "Tokens (1)")
	assert.Contains(t, out, "3F9A0C1D2E4B5A68")
	assert.Contains(t, out, "op-1")
}

func TestView_ListingErrors(t *testing.T) {
	v := newTestView()
	v.SetSnapshot(messages.Snapshot{
		GrantsErr: fmt.Errorf("%w: requires super", domain.ErrUnauthorized),
		TokensErr: errors.New("disk gone"),
	})

	assert.Contains(t, v.View(), "Only privileged operators can list this.")
	v.Next()
	assert.Contains(t, v.View(), "Could not load: disk gone")
}

func TestView_Truncates(t *testing.T) {
	v := newTestView()
	v.SetDimensions(100, 8)

	grants := make([]domain.AccessGrant, 10)
	for i := range grants {
		grants[i] = domain.AccessGrant{
			SubjectID:  fmt.Sprintf("subject-%02d", i),
			Plan:       "1 day",
			ValidUntil: epoch.Add(24 * time.Hour),
		}
	}
	v.SetSnapshot(messages.Snapshot{Grants: grants})

	out := v.View()
	assert.Contains(t, out, "subject-00")
	assert.Contains(t, out, "subject-02")
	assert.NotContains(t, out, "subject-03")
	assert.Contains(t, out, "... and 7 more")
}

func TestVisible(t *testing.T) {
	v := newTestView()

	v.SetDimensions(80, 2)
	assert.Equal(t, 1, v.visible(5))

	v.SetDimensions(80, 30)
	assert.Equal(t, 5, v.visible(5))
}
