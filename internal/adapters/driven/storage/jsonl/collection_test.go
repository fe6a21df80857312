package jsonl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

func backups(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	return matches
}

func TestOpenCollection_MissingFileIsCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokensFile)

	c, err := OpenCollection(path, TokenCodec)
	require.NoError(t, err)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

func TestOpenCollection_TruncatedTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokensFile)
	truncated := `{"token":"abc","duration_seconds":36`
	require.NoError(t, os.WriteFile(path, []byte(truncated), 0o600))

	c, err := OpenCollection(path, TokenCodec)
	require.NoError(t, err)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap)

	found := backups(t, path)
	require.Len(t, found, 1)
	kept, err := os.ReadFile(found[0])
	require.NoError(t, err)
	assert.Equal(t, truncated, string(kept))

	// The pool is usable after recovery.
	err = c.Update(context.Background(), func(records map[string]domain.LicenseToken) (bool, error) {
		records["fresh"] = domain.LicenseToken{Token: "fresh", Duration: time.Hour, Plan: "1 hour"}
		return true, nil
	})
	require.NoError(t, err)

	reopened, err := OpenCollection(path, TokenCodec)
	require.NoError(t, err)
	snap, _ = reopened.Snapshot(context.Background())
	assert.Contains(t, snap, "fresh")
}

func TestOpenCollection_SalvagesBeforeDamagedTrailingLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokensFile)
	content := strings.Join([]string{
		`{"token":"a","duration_seconds":3600,"plan":"1 hour"}`,
		`{"token":"b","duration_seconds":86400,"plan":"1 day"}`,
		`{"token":"c","durati`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := OpenCollection(path, TokenCodec)
	require.NoError(t, err)

	snap, _ := c.Snapshot(context.Background())
	require.Len(t, snap, 2)
	assert.Equal(t, time.Hour, snap["a"].Duration)
	assert.Equal(t, 24*time.Hour, snap["b"].Duration)
	assert.Len(t, backups(t, path), 1)

	// The live file is rewritten in clean form.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.NotContains(t, string(data), `"durati"`)
}

func TestOpenCollection_DamagedMiddleLineResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), GrantsFile)
	content := strings.Join([]string{
		`{"subject_id":"u1","valid_until":"2026-01-01T00:00:00Z","plan":"1 day"}`,
		`not json`,
		`{"subject_id":"u2","valid_until":"2026-01-01T00:00:00Z","plan":"1 day"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := OpenCollection(path, GrantCodec)
	require.NoError(t, err)

	snap, _ := c.Snapshot(context.Background())
	assert.Empty(t, snap)
	assert.Len(t, backups(t, path), 1)
}

func TestOpenCollection_InvalidRecordIsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), AccountsFile)
	content := `{"id":"op","balance":-5}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := OpenCollection(path, AccountCodec)
	require.NoError(t, err)

	snap, _ := c.Snapshot(context.Background())
	assert.Empty(t, snap)
	assert.Len(t, backups(t, path), 1)
}

func TestOpenCollection_BlankLinesIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), AccountsFile)
	content := "\n" + `{"id":"op","balance":5}` + "\n\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := OpenCollection(path, AccountCodec)
	require.NoError(t, err)

	snap, _ := c.Snapshot(context.Background())
	assert.Equal(t, int64(5), snap["op"].Balance)
	assert.Empty(t, backups(t, path))
}

func TestCollection_DurationStoredAsSeconds(t *testing.T) {
	path := filepath.Join(t.TempDir(), TokensFile)
	c, err := OpenCollection(path, TokenCodec)
	require.NoError(t, err)

	err = c.Update(context.Background(), func(records map[string]domain.LicenseToken) (bool, error) {
		records["t"] = domain.LicenseToken{Token: "t", Duration: 7 * 24 * time.Hour, Plan: "1 week"}
		return true, nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"duration_seconds":604800`)
}

func TestCollection_FailedWriteLeavesStateUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), AccountsFile)
	c, err := OpenCollection(path, AccountCodec)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, func(records map[string]domain.OperatorAccount) (bool, error) {
		records["op"] = domain.OperatorAccount{ID: "op", Balance: 100}
		return true, nil
	}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	c.write = func(string, []byte, os.FileMode) error { return errors.New("disk full") }
	err = c.Update(ctx, func(records map[string]domain.OperatorAccount) (bool, error) {
		acct := records["op"]
		acct.Balance = 20
		records["op"] = acct
		return true, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreIO)

	snap, _ := c.Snapshot(ctx)
	assert.Equal(t, int64(100), snap["op"].Balance)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCollection_UnchangedSkipsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), GrantsFile)
	c, err := OpenCollection(path, GrantCodec)
	require.NoError(t, err)

	writes := 0
	c.write = func(p string, data []byte, perm os.FileMode) error {
		writes++
		return writeAtomic(p, data, perm)
	}

	err = c.Update(context.Background(), func(map[string]domain.AccessGrant) (bool, error) {
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, writes)
}

func TestCollection_CallbackErrorDiscardsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), AccountsFile)
	c, err := OpenCollection(path, AccountCodec)
	require.NoError(t, err)

	err = c.Update(context.Background(), func(records map[string]domain.OperatorAccount) (bool, error) {
		records["op"] = domain.OperatorAccount{ID: "op", Balance: 1}
		return true, domain.ErrInsufficientBalance
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	snap, _ := c.Snapshot(context.Background())
	assert.Empty(t, snap)
}

func TestCollection_QuarantineUsesUTCTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), RedeemedFile)
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600))
	c := &Collection[domain.RedemptionRecord]{
		path:  path,
		name:  RedeemedFile,
		codec: RedemptionCodec,
		write: writeAtomic,
		now:   func() time.Time { return fixed },
	}
	require.NoError(t, c.load())

	_, err := os.Stat(path + ".corrupt-20260304T040607.000000000Z")
	assert.NoError(t, err)
}
