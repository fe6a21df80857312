package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/tollgate/internal/adapters/driving/chat"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/tollgate/internal/adapters/driving/tui/views/panel"
	"github.com/custodia-labs/tollgate/internal/core/domain"
)

const (
	// refreshEvery is how often the panels reload on their own.
	refreshEvery = 15 * time.Second

	// transcriptKeep bounds the scrollback.
	transcriptKeep = 500
)

// App is the operator console following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports      *Ports
	ctx        context.Context
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	dispatcher *chat.Dispatcher

	prompt    *input.Prompt
	panel     *panel.View
	statusBar *status.Bar
	log       viewport.Model

	// transcript holds submitted lines and their replies.
	transcript []string
	snapshot   messages.Snapshot

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a console acting as ports.CallerID.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(ports.CallerID, s, km)

	return &App{
		ports:      ports,
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		dispatcher: chat.NewDispatcher(ports.Access),
		prompt:     input.NewPrompt(s),
		panel:      panel.NewView(s),
		statusBar:  bar,
		log:        viewport.New(80, 5),
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("tollgate console"),
		a.prompt.Init(),
		a.refresh(),
		tick(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.CommandReplied:
		if msg.Reply != "" {
			a.appendTranscript(msg.Reply)
		}
		if msg.Err != nil {
			a.statusBar.Fail(msg.Err)
		} else {
			a.statusBar.Ready()
		}
		return a, a.refresh()

	case messages.SnapshotLoaded:
		if msg.Err != nil {
			a.statusBar.Fail(msg.Err)
			return a, nil
		}
		a.snapshot = msg.Snapshot
		a.panel.SetSnapshot(msg.Snapshot)
		a.statusBar.SetStanding(msg.Snapshot.Privilege, msg.Snapshot.Balance)
		return a, nil

	case messages.RefreshTick:
		return a, tea.Batch(a.refresh(), tick())
	}

	// Cursor blink and the like.
	a.prompt, cmd = a.prompt.Update(msg)
	return a, cmd
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch k := msg.String(); {
	case keymap.Matches(k, a.keymap.Quit):
		return tea.Quit
	case keymap.Matches(k, a.keymap.Run):
		line := strings.TrimSpace(a.prompt.Submit())
		if line == "" {
			return nil
		}
		a.appendTranscript(a.styles.Caller.Render("> " + line))
		a.statusBar.Running()
		return a.run(line)
	case keymap.Matches(k, a.keymap.Clear):
		a.prompt.Reset()
		return nil
	case keymap.Matches(k, a.keymap.NextPanel):
		a.panel.Next()
		return nil
	case keymap.Matches(k, a.keymap.PrevPanel):
		a.panel.Prev()
		return nil
	case keymap.Matches(k, a.keymap.Refresh):
		return a.refresh()
	case keymap.Matches(k, a.keymap.HistoryUp):
		a.prompt.Previous()
		return nil
	case keymap.Matches(k, a.keymap.HistoryDown):
		a.prompt.Next()
		return nil
	case k == "pgup", k == "pgdown":
		a.log, cmd = a.log.Update(msg)
		return cmd
	}
	a.prompt, cmd = a.prompt.Update(msg)
	return cmd
}

// run dispatches line in the background.
func (a *App) run(line string) tea.Cmd {
	ctx, caller, d := a.ctx, a.ports.CallerID, a.dispatcher
	return func() tea.Msg {
		var replies []string
		err := d.Handle(ctx, caller, line, func(reply string) {
			replies = append(replies, reply)
		})
		return messages.CommandReplied{
			Line:  line,
			Reply: strings.Join(replies, "\n"),
			Err:   err,
		}
	}
}

// refresh loads the caller's standing and the listings they may see.
func (a *App) refresh() tea.Cmd {
	ctx, caller, access := a.ctx, a.ports.CallerID, a.ports.Access
	return func() tea.Msg {
		var snap messages.Snapshot

		priv, err := access.CheckPrivilege(ctx, caller)
		if err != nil {
			return messages.SnapshotLoaded{Err: err}
		}
		snap.Privilege = priv

		if priv.AtLeast(domain.PrivilegeOperator) {
			if snap.Balance, err = access.Balance(ctx, caller); err != nil {
				return messages.SnapshotLoaded{Err: err}
			}
		}

		grant, err := access.Status(ctx, caller)
		switch {
		case err == nil:
			snap.Grant = grant
		case !errors.Is(err, domain.ErrNotFound):
			return messages.SnapshotLoaded{Err: err}
		}

		snap.Grants, snap.GrantsErr = access.ListActiveGrants(ctx, caller)
		snap.Tokens, snap.TokensErr = access.ListTokens(ctx, caller)
		return messages.SnapshotLoaded{Snapshot: snap}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg {
		return messages.RefreshTick{}
	})
}

func (a *App) appendTranscript(text string) {
	a.transcript = append(a.transcript, strings.Split(text, "\n")...)
	if len(a.transcript) > transcriptKeep {
		a.transcript = a.transcript[len(a.transcript)-transcriptKeep:]
	}
	a.log.SetContent(strings.Join(a.transcript, "\n"))
	a.log.GotoBottom()
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		a.renderHeader(),
		a.panel.View(),
		a.styles.Panel.Width(a.width-2).Render(a.log.View()),
		a.prompt.View(),
		a.statusBar.View(),
	)
}

func (a *App) renderHeader() string {
	header := a.styles.Title.Render("tollgate") + a.styles.Muted.Render(" console")
	if g := a.snapshot.Grant; g != nil {
		header += "  " + a.styles.Success.Render("access until "+g.ValidUntil.Local().Format("2006-01-02 15:04"))
	}
	return header
}

// Run starts the console and blocks until it exits or ctx is done.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && a.ctx.Err() != nil {
		return nil
	}
	return err
}

// SetDimensions lays the console out for a terminal of the given size.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true

	// Header, prompt (3) and status bar take five lines; the rest is split
	// between the panel and the transcript.
	body := max(height-5, 4)
	panelHeight := body / 2
	a.panel.SetDimensions(width, panelHeight)
	a.log.Width = max(width-4, 10)
	a.log.Height = max(body-panelHeight-3, 1)
	a.prompt.SetWidth(width)
	a.statusBar.SetWidth(width)
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// Transcript returns the console scrollback, oldest first.
func (a *App) Transcript() []string {
	return a.transcript
}

// Snapshot returns the last loaded snapshot.
func (a *App) Snapshot() messages.Snapshot {
	return a.snapshot
}

// CurrentPanel returns the listing shown.
func (a *App) CurrentPanel() messages.Panel {
	return a.panel.Active()
}

// StatusState returns the status bar state.
func (a *App) StatusState() status.State {
	return a.statusBar.State()
}
