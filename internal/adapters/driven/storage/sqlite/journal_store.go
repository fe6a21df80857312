package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
)

// journalStore implements driven.JournalStore.
type journalStore struct {
	store *Store
}

var _ driven.JournalStore = (*journalStore)(nil)

// Append inserts an entry. A missing ID is filled with a random UUID.
func (s *journalStore) Append(ctx context.Context, entry *domain.JournalEntry) error {
	if entry == nil || entry.Action == "" || entry.At.IsZero() {
		return domain.ErrInvalidInput
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO journal (id, action, actor_id, subject_id, amount, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, string(entry.Action), entry.ActorID, entry.SubjectID,
		entry.Amount, entry.Detail, formatTime(entry.At))
	if err != nil {
		return fmt.Errorf("appending journal entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (s *journalStore) Recent(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, action, actor_id, subject_id, amount, detail, at
		FROM journal
		ORDER BY at DESC, rowid DESC
		LIMIT ?
	`, limitArg(limit))
}

// BySubject returns entries about one subject, newest first.
func (s *journalStore) BySubject(ctx context.Context, subjectID string, limit int) ([]domain.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, action, actor_id, subject_id, amount, detail, at
		FROM journal
		WHERE subject_id = ?
		ORDER BY at DESC, rowid DESC
		LIMIT ?
	`, subjectID, limitArg(limit))
}

func (s *journalStore) query(ctx context.Context, query string, args ...any) ([]domain.JournalEntry, error) {
	return collect(ctx, s.store.db, "journal", scanJournalEntry, query, args...)
}

func scanJournalEntry(row rowScanner) (domain.JournalEntry, error) {
	var e domain.JournalEntry
	var action, at string
	if err := row.Scan(&e.ID, &action, &e.ActorID, &e.SubjectID, &e.Amount, &e.Detail, &at); err != nil {
		return e, fmt.Errorf("scanning journal entry: %w", err)
	}
	e.Action = domain.JournalAction(action)
	e.At = parseTime(at)
	return e, nil
}
