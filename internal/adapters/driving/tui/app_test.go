package tui

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tollgate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/core/ports/driving"
	"github.com/custodia-labs/tollgate/internal/core/services"
)

// newTestAccess wires real services over memory stores with "root"
// privileged.
func newTestAccess(t *testing.T) driving.AccessService {
	t.Helper()
	ledger := services.NewLedger(memory.NewRecordStore[domain.OperatorAccount](), driven.StaticPrivileges{"root"})
	pool := services.NewPool(ledger, memory.NewRecordStore[domain.LicenseToken](), memory.NewRecordStore[domain.RedemptionRecord](), domain.DefaultRateCard())
	registry := services.NewRegistry(memory.NewRecordStore[domain.AccessGrant]())
	return services.NewAccessService(ledger, pool, registry)
}

func newTestApp(t *testing.T, caller string) *App {
	t.Helper()
	app, err := NewApp(&Ports{Access: newTestAccess(t), CallerID: caller})
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app
}

// submit types line and runs the resulting command and refresh to completion.
func submit(t *testing.T, app *App, line string) {
	t.Helper()
	app.prompt.SetValue(line)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	reply := cmd()
	require.IsType(t, messages.CommandReplied{}, reply)
	_, refresh := app.Update(reply)
	require.NotNil(t, refresh)
	app.Update(refresh())
}

func TestNewApp_Success(t *testing.T) {
	app, err := NewApp(&Ports{Access: newTestAccess(t), CallerID: "root"})

	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, messages.PanelGrants, app.CurrentPanel())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{CallerID: "root"})

	assert.ErrorIs(t, err, ErrMissingAccessService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app := newTestApp(t, "root")

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_Init(t *testing.T) {
	app := newTestApp(t, "root")

	assert.NotNil(t, app.Init())
}

func TestApp_Update_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Access: newTestAccess(t), CallerID: "root"})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 30})

	assert.Same(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "tollgate")
}

func TestApp_Refresh_Super(t *testing.T) {
	app := newTestApp(t, "root")

	msg := app.refresh()()
	loaded, ok := msg.(messages.SnapshotLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, domain.PrivilegeSuper, loaded.Snapshot.Privilege)
	assert.True(t, loaded.Snapshot.Balance.Unlimited)
	assert.NoError(t, loaded.Snapshot.GrantsErr)
	assert.NoError(t, loaded.Snapshot.TokensErr)
	assert.Nil(t, loaded.Snapshot.Grant)
}

func TestApp_Refresh_Subject(t *testing.T) {
	app := newTestApp(t, "alice")

	app.Update(app.refresh()())

	snap := app.Snapshot()
	assert.Equal(t, domain.PrivilegeNone, snap.Privilege)
	assert.ErrorIs(t, snap.GrantsErr, domain.ErrUnauthorized)
	assert.ErrorIs(t, snap.TokensErr, domain.ErrUnauthorized)
	assert.Contains(t, app.View(), "Only privileged operators can list this.")
}

func TestApp_RunCommand(t *testing.T) {
	app := newTestApp(t, "root")

	submit(t, app, "add-operator op-1 50")

	assert.Contains(t, app.Transcript(), "> add-operator op-1 50")
	assert.Contains(t, app.Transcript(), "Operator op-1 now has 50 credits.")
	assert.Equal(t, status.StateReady, app.StatusState())
	assert.Empty(t, app.prompt.Value())
}

func TestApp_IssueAndRedeemShowsGrant(t *testing.T) {
	access := newTestAccess(t)
	root, err := NewApp(&Ports{Access: access, CallerID: "root"})
	require.NoError(t, err)
	root.SetDimensions(100, 40)

	submit(t, root, "issue 1 day")
	require.Len(t, root.Snapshot().Tokens, 1)
	token := root.Snapshot().Tokens[0].Token

	alice, err := NewApp(&Ports{Access: access, CallerID: "alice"})
	require.NoError(t, err)
	alice.SetDimensions(100, 40)

	submit(t, alice, "redeem "+token)
	require.NotNil(t, alice.Snapshot().Grant)
	assert.Equal(t, "alice", alice.Snapshot().Grant.SubjectID)
	assert.Contains(t, alice.View(), "access until")

	root.Update(root.refresh()())
	assert.Len(t, root.Snapshot().Grants, 1)
	assert.Empty(t, root.Snapshot().Tokens)
}

func TestApp_EnterOnBlankLine(t *testing.T) {
	app := newTestApp(t, "root")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, app.Transcript())
}

func TestApp_Typing(t *testing.T) {
	app := newTestApp(t, "root")

	for _, r := range "help" {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	assert.Equal(t, "help", app.prompt.Value())

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, app.prompt.Value())
}

func TestApp_PanelSwitching(t *testing.T) {
	app := newTestApp(t, "root")

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, messages.PanelTokens, app.CurrentPanel())

	app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, messages.PanelGrants, app.CurrentPanel())
}

func TestApp_HistoryRecall(t *testing.T) {
	app := newTestApp(t, "root")
	submit(t, app, "balance")

	app.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "balance", app.prompt.Value())

	app.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, app.prompt.Value())
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t, "root")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_Refresh_Key(t *testing.T) {
	app := newTestApp(t, "root")

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	require.NotNil(t, cmd)
	assert.IsType(t, messages.SnapshotLoaded{}, cmd())
}

func TestApp_RefreshTick(t *testing.T) {
	app := newTestApp(t, "root")

	_, cmd := app.Update(messages.RefreshTick{})

	assert.NotNil(t, cmd)
}

func TestApp_CommandFailed(t *testing.T) {
	app := newTestApp(t, "root")

	app.Update(messages.CommandReplied{
		Line:  "balance",
		Reply: "Something went wrong saving that.",
		Err:   errors.New("disk full"),
	})

	assert.Equal(t, status.StateError, app.StatusState())
	assert.Contains(t, app.View(), "disk full")
}

func TestApp_SnapshotFailed(t *testing.T) {
	app := newTestApp(t, "root")

	model, cmd := app.Update(messages.SnapshotLoaded{Err: errors.New("store offline")})

	assert.Same(t, app, model)
	assert.Nil(t, cmd)
	assert.Equal(t, status.StateError, app.StatusState())
}

func TestApp_TranscriptBounded(t *testing.T) {
	app := newTestApp(t, "root")

	for i := range transcriptKeep + 20 {
		app.appendTranscript(fmt.Sprintf("line %d", i))
	}

	require.Len(t, app.Transcript(), transcriptKeep)
	assert.Equal(t, "line 20", app.Transcript()[0])
}
