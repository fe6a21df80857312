// Package messages defines Bubbletea message types for the console.
package messages

import (
	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// Panel identifies which listing the console shows.
type Panel int

const (
	// PanelGrants lists active access grants.
	PanelGrants Panel = iota
	// PanelTokens lists unredeemed tokens.
	PanelTokens
)

// String returns the panel's tab label.
func (p Panel) String() string {
	switch p {
	case PanelGrants:
		return "Grants"
	case PanelTokens:
		return "Tokens"
	default:
		return "unknown"
	}
}

// Panels returns the panels in tab order.
func Panels() []Panel {
	return []Panel{PanelGrants, PanelTokens}
}

// CommandReplied carries the dispatcher's reply to a submitted line.
type CommandReplied struct {
	Line  string
	Reply string
	Err   error
}

// Snapshot is a point-in-time view of the caller's standing and listings.
// Listing errors are kept per listing so an operator still sees their
// balance when they may not list grants.
type Snapshot struct {
	Privilege domain.Privilege
	Balance   domain.Balance
	Grant     *domain.AccessGrant

	Grants    []domain.AccessGrant
	GrantsErr error

	Tokens    []domain.LicenseToken
	TokensErr error
}

// SnapshotLoaded carries a refreshed snapshot.
type SnapshotLoaded struct {
	Snapshot Snapshot
	Err      error
}

// RefreshTick fires the periodic panel refresh.
type RefreshTick struct{}
