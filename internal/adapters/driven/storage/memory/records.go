// Package memory provides in-memory implementations of driven store ports.
// Nothing survives a restart; these back tests and ephemeral runs.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
)

// Ensure RecordStore implements the interfaces.
var (
	_ driven.AccountStore    = (*RecordStore[domain.OperatorAccount])(nil)
	_ driven.TokenStore      = (*RecordStore[domain.LicenseToken])(nil)
	_ driven.GrantStore      = (*RecordStore[domain.AccessGrant])(nil)
	_ driven.RedemptionStore = (*RecordStore[domain.RedemptionRecord])(nil)
)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore[V any] struct {
	mu      sync.Mutex
	records map[string]V
	writes  int
}

// NewRecordStore creates an empty in-memory collection.
func NewRecordStore[V any]() *RecordStore[V] {
	return &RecordStore[V]{
		records: make(map[string]V),
	}
}

// Snapshot returns a copy of all records.
func (s *RecordStore[V]) Snapshot(_ context.Context) (map[string]V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.records), nil
}

// Update applies fn to a copy and swaps it in if fn reports a change.
func (s *RecordStore[V]) Update(_ context.Context, fn func(records map[string]V) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	working := maps.Clone(s.records)
	changed, err := fn(working)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.records = working
	s.writes++
	return nil
}

// Writes returns how many committed updates the store has seen.
func (s *RecordStore[V]) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
