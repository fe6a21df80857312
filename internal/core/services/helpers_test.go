package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/tollgate/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
)

var errDiskFull = errors.New("disk full")

// faultyStore wraps an in-memory store and fails updates on demand.
type faultyStore[V any] struct {
	*memory.RecordStore[V]

	mu sync.Mutex
	// failAfter lets this many further updates succeed before failing.
	// Negative disables failure.
	failAfter int
}

func newFaultyStore[V any]() *faultyStore[V] {
	return &faultyStore[V]{
		RecordStore: memory.NewRecordStore[V](),
		failAfter:   -1,
	}
}

// failNext makes the next update fail after skip successful ones.
func (s *faultyStore[V]) failNext(skip int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = skip
}

func (s *faultyStore[V]) heal() {
	s.failNext(-1)
}

func (s *faultyStore[V]) Update(ctx context.Context, fn func(map[string]V) (bool, error)) error {
	s.mu.Lock()
	fail := s.failAfter == 0
	if s.failAfter > 0 {
		s.failAfter--
	}
	if fail {
		s.failAfter = -1
	}
	s.mu.Unlock()

	if !fail {
		return s.RecordStore.Update(ctx, fn)
	}
	// Run fn against a throwaway copy so its side effects match a real
	// store that fails while persisting.
	snap, _ := s.RecordStore.Snapshot(ctx)
	if _, err := fn(snap); err != nil {
		return err
	}
	return errDiskFull
}

// testCore bundles the licence services over in-memory stores.
type testCore struct {
	accounts *faultyStore[domain.OperatorAccount]
	tokens   *faultyStore[domain.LicenseToken]
	redeemed *faultyStore[domain.RedemptionRecord]
	grants   *faultyStore[domain.AccessGrant]

	ledger   *Ledger
	pool     *Pool
	registry *Registry
}

func newTestCore(privileged ...string) *testCore {
	c := &testCore{
		accounts: newFaultyStore[domain.OperatorAccount](),
		tokens:   newFaultyStore[domain.LicenseToken](),
		redeemed: newFaultyStore[domain.RedemptionRecord](),
		grants:   newFaultyStore[domain.AccessGrant](),
	}
	c.ledger = NewLedger(c.accounts, driven.StaticPrivileges(privileged))
	c.pool = NewPool(c.ledger, c.tokens, c.redeemed, nil)
	c.registry = NewRegistry(c.grants)
	return c
}

func (c *testCore) addOperator(id string, balance int64) {
	_, err := c.ledger.AddOperator(context.Background(), id, balance, "test")
	if err != nil {
		panic(err)
	}
}

// fixedClock returns a settable clock.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// mockJournal implements driven.JournalStore for testing.
type mockJournal struct {
	mu        sync.Mutex
	entries   []domain.JournalEntry
	appendErr error
}

func (m *mockJournal) Append(_ context.Context, entry *domain.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockJournal) Recent(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.entries)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockJournal) BySubject(ctx context.Context, subjectID string, limit int) ([]domain.JournalEntry, error) {
	all, _ := m.Recent(ctx, 0)
	var out []domain.JournalEntry
	for _, e := range all {
		if e.SubjectID == subjectID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockJournal) actions() []domain.JournalAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]domain.JournalAction, 0, len(m.entries))
	for _, e := range m.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

// mockMetrics records observations.
type mockMetrics struct {
	mu      sync.Mutex
	issues  []string
	redeems []string
	sweeps  []int
	active  int
}

func (m *mockMetrics) IssueObserved(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = append(m.issues, outcome)
}

func (m *mockMetrics) RedeemObserved(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redeems = append(m.redeems, outcome)
}

func (m *mockMetrics) SweepObserved(removed int, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweeps = append(m.sweeps, removed)
}

func (m *mockMetrics) ActiveGrants(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

var (
	_ driven.JournalStore = (*mockJournal)(nil)
	_ driven.Metrics      = (*mockMetrics)(nil)
	_ driven.GrantStore   = (*faultyStore[domain.AccessGrant])(nil)
)
