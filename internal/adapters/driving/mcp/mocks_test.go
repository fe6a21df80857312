package mcp

import (
	"context"
	"testing"

	"github.com/custodia-labs/tollgate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/core/services"
)

// newTestAccess wires an access service over in-memory stores with "root"
// privileged and "op" holding 100 credits.
func newTestAccess(t *testing.T) *services.AccessService {
	t.Helper()
	ledger := services.NewLedger(memory.NewRecordStore[domain.OperatorAccount](), driven.StaticPrivileges{"root"})
	pool := services.NewPool(ledger, memory.NewRecordStore[domain.LicenseToken](), memory.NewRecordStore[domain.RedemptionRecord](), nil)
	registry := services.NewRegistry(memory.NewRecordStore[domain.AccessGrant]())
	access := services.NewAccessService(ledger, pool, registry)
	if _, err := access.AddOperator(context.Background(), "root", "op", 100); err != nil {
		t.Fatalf("adding operator: %v", err)
	}
	return access
}

// mockJournal is a mock implementation of driven.JournalStore.
type mockJournal struct {
	entries []domain.JournalEntry
	err     error
}

func (m *mockJournal) Append(_ context.Context, entry *domain.JournalEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockJournal) Recent(_ context.Context, _ int) ([]domain.JournalEntry, error) {
	return m.entries, m.err
}

func (m *mockJournal) BySubject(_ context.Context, subjectID string, _ int) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	for _, e := range m.entries {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	return out, m.err
}

var _ driven.JournalStore = (*mockJournal)(nil)
