package jsonl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/tollgate/internal/core/domain"
)

// Collection file names within the data directory.
const (
	AccountsFile = "accounts.jsonl"
	TokensFile   = "tokens.jsonl"
	GrantsFile   = "grants.jsonl"
	RedeemedFile = "redeemed.jsonl"
)

// Store owns the four collections of one data directory.
type Store struct {
	Accounts *Collection[domain.OperatorAccount]
	Tokens   *Collection[domain.LicenseToken]
	Grants   *Collection[domain.AccessGrant]
	Redeemed *Collection[domain.RedemptionRecord]

	dir string
}

// Open loads every collection under dataDir, creating the directory and any
// missing files. If dataDir is empty, defaults to ~/.tollgate/data.
// A corrupt collection is recovered without affecting the others.
func Open(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".tollgate", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrStoreIO, err)
	}

	accounts, err := OpenCollection(filepath.Join(dataDir, AccountsFile), AccountCodec)
	if err != nil {
		return nil, err
	}
	tokens, err := OpenCollection(filepath.Join(dataDir, TokensFile), TokenCodec)
	if err != nil {
		return nil, err
	}
	grants, err := OpenCollection(filepath.Join(dataDir, GrantsFile), GrantCodec)
	if err != nil {
		return nil, err
	}
	redeemed, err := OpenCollection(filepath.Join(dataDir, RedeemedFile), RedemptionCodec)
	if err != nil {
		return nil, err
	}

	return &Store{
		Accounts: accounts,
		Tokens:   tokens,
		Grants:   grants,
		Redeemed: redeemed,
		dir:      dataDir,
	}, nil
}

// Dir returns the data directory the store was opened on.
func (s *Store) Dir() string {
	return s.dir
}
