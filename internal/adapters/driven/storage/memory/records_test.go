package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

func TestNewRecordStore(t *testing.T) {
	store := NewRecordStore[domain.OperatorAccount]()
	require.NotNil(t, store)
	assert.NotNil(t, store.records)

	snap, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestRecordStore_Update_Commits(t *testing.T) {
	store := NewRecordStore[domain.OperatorAccount]()
	ctx := context.Background()

	err := store.Update(ctx, func(records map[string]domain.OperatorAccount) (bool, error) {
		records["op-1"] = domain.OperatorAccount{ID: "op-1", Balance: 50}
		return true, nil
	})
	require.NoError(t, err)

	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), snap["op-1"].Balance)
	assert.Equal(t, 1, store.Writes())
}

func TestRecordStore_Update_ErrorDiscardsChanges(t *testing.T) {
	store := NewRecordStore[domain.OperatorAccount]()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Update(ctx, func(records map[string]domain.OperatorAccount) (bool, error) {
		records["op-1"] = domain.OperatorAccount{ID: "op-1"}
		return true, boom
	})
	assert.ErrorIs(t, err, boom)

	snap, _ := store.Snapshot(ctx)
	assert.Empty(t, snap)
	assert.Equal(t, 0, store.Writes())
}

func TestRecordStore_Update_UnchangedSkipsWrite(t *testing.T) {
	store := NewRecordStore[domain.AccessGrant]()
	ctx := context.Background()

	err := store.Update(ctx, func(records map[string]domain.AccessGrant) (bool, error) {
		records["ignored"] = domain.AccessGrant{SubjectID: "ignored"}
		return false, nil
	})
	require.NoError(t, err)

	snap, _ := store.Snapshot(ctx)
	assert.Empty(t, snap)
	assert.Equal(t, 0, store.Writes())
}

func TestRecordStore_Snapshot_IsCopy(t *testing.T) {
	store := NewRecordStore[domain.LicenseToken]()
	ctx := context.Background()

	_ = store.Update(ctx, func(records map[string]domain.LicenseToken) (bool, error) {
		records["tok"] = domain.LicenseToken{Token: "tok"}
		return true, nil
	})

	snap, _ := store.Snapshot(ctx)
	delete(snap, "tok")

	again, _ := store.Snapshot(ctx)
	assert.Contains(t, again, "tok")
}

func TestRecordStore_ConcurrentUpdates(t *testing.T) {
	store := NewRecordStore[domain.OperatorAccount]()
	ctx := context.Background()

	_ = store.Update(ctx, func(records map[string]domain.OperatorAccount) (bool, error) {
		records["op"] = domain.OperatorAccount{ID: "op"}
		return true, nil
	})

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(ctx, func(records map[string]domain.OperatorAccount) (bool, error) {
				acct := records["op"]
				acct.Balance++
				records["op"] = acct
				return true, nil
			})
		}()
	}
	wg.Wait()

	snap, _ := store.Snapshot(ctx)
	assert.Equal(t, int64(100), snap["op"].Balance)
}
