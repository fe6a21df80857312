package driven

import (
	"context"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// RecordStore is a durable, keyed collection of records.
// Each collection is independently persisted and independently recoverable.
//
// All mutations of one collection are serialised. Update is the only way to
// change records: the callback receives a private copy and the copy becomes
// live only after it has been persisted.
type RecordStore[V any] interface {
	// Snapshot returns a consistent copy of all records, keyed by record key.
	Snapshot(ctx context.Context) (map[string]V, error)

	// Update runs fn under the collection's exclusive lock.
	// fn mutates records in place and reports whether anything changed.
	// If fn returns an error, nothing is persisted and the error is returned.
	// If fn reports no change, the write is skipped.
	// If persisting fails, the live state is left untouched and an error
	// wrapping domain.ErrStoreIO is returned.
	Update(ctx context.Context, fn func(records map[string]V) (changed bool, err error)) error
}

// AccountStore persists operator accounts keyed by operator ID.
type AccountStore = RecordStore[domain.OperatorAccount]

// TokenStore persists unredeemed licence tokens keyed by token string.
type TokenStore = RecordStore[domain.LicenseToken]

// GrantStore persists access grants keyed by subject ID.
type GrantStore = RecordStore[domain.AccessGrant]

// RedemptionStore persists recently consumed tokens keyed by token string.
type RedemptionStore = RecordStore[domain.RedemptionRecord]
