package driven

import (
	"context"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// JournalStore is an append-only audit log of ledger mutations.
type JournalStore interface {
	// Append records an entry. Entries are never updated.
	Append(ctx context.Context, entry *domain.JournalEntry) error

	// Recent returns the most recent entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error)

	// BySubject returns entries for one subject, newest first.
	BySubject(ctx context.Context, subjectID string, limit int) ([]domain.JournalEntry, error)
}
