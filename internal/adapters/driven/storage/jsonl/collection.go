package jsonl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/custodia-labs/tollgate/internal/core/domain"
	"github.com/custodia-labs/tollgate/internal/core/ports/driven"
	"github.com/custodia-labs/tollgate/internal/logger"
)

// Ensure Collection implements the interfaces.
var (
	_ driven.AccountStore    = (*Collection[domain.OperatorAccount])(nil)
	_ driven.TokenStore      = (*Collection[domain.LicenseToken])(nil)
	_ driven.GrantStore      = (*Collection[domain.AccessGrant])(nil)
	_ driven.RedemptionStore = (*Collection[domain.RedemptionRecord])(nil)
)

// backupTimeFormat is the UTC timestamp appended to quarantined files.
const backupTimeFormat = "20060102T150405.000000000Z"

// filePerm is the mode of collection files. They hold balances and tokens.
const filePerm = 0o600

// Collection is a keyed set of records persisted to a single JSONL file.
type Collection[V any] struct {
	mu      sync.Mutex
	path    string
	name    string
	codec   Codec[V]
	records map[string]V

	write func(path string, data []byte, perm os.FileMode) error
	now   func() time.Time
}

// OpenCollection loads the collection at path, creating or recovering the
// file as needed. It only fails if the file cannot be read or written.
func OpenCollection[V any](path string, codec Codec[V]) (*Collection[V], error) {
	c := &Collection[V]{
		path:  path,
		name:  filepath.Base(path),
		codec: codec,
		write: writeAtomic,
		now:   time.Now,
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}

// Path returns the file backing the collection.
func (c *Collection[V]) Path() string {
	return c.path
}

// Snapshot returns a copy of all records.
func (c *Collection[V]) Snapshot(_ context.Context) (map[string]V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.records), nil
}

// Update applies fn to a private copy of the records. A changed copy is
// written to disk and only then replaces the live records.
func (c *Collection[V]) Update(_ context.Context, fn func(records map[string]V) (bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	working := maps.Clone(c.records)
	changed, err := fn(working)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := c.persist(working); err != nil {
		return err
	}
	c.records = working
	return nil
}

func (c *Collection[V]) load() error {
	data, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("jsonl: creating %s", c.path)
		c.records = make(map[string]V)
		return c.persist(c.records)
	case err != nil:
		return fmt.Errorf("%w: read %s: %w", domain.ErrStoreIO, c.name, err)
	}

	records, parseErr := c.parse(data)
	if parseErr == nil {
		c.records = records
		logger.Debug("jsonl: loaded %d records from %s", len(records), c.name)
		return nil
	}

	backup, err := c.quarantine()
	if err != nil {
		return err
	}
	logger.WithFields(logger.Fields{
		"file":   c.name,
		"backup": filepath.Base(backup),
		"kept":   len(records),
	}).Warnf("recovered corrupt collection: %v", parseErr)

	c.records = records
	return c.persist(records)
}

// parse decodes every non-blank line. On failure it returns the records that
// survive recovery along with an error wrapping domain.ErrStoreCorrupt.
func (c *Collection[V]) parse(data []byte) (map[string]V, error) {
	lines := bytes.Split(data, []byte("\n"))

	last := -1
	for i, line := range lines {
		if len(bytes.TrimSpace(line)) > 0 {
			last = i
		}
	}

	records := make(map[string]V)
	for i, line := range lines {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		v, err := c.codec.Unmarshal(line)
		if err != nil {
			corrupt := fmt.Errorf("%w: %s line %d: %w", domain.ErrStoreCorrupt, c.name, i+1, err)
			if i == last {
				return records, corrupt
			}
			return make(map[string]V), corrupt
		}
		records[c.codec.Key(v)] = v
	}
	return records, nil
}

// quarantine moves the damaged file aside and returns its new path.
func (c *Collection[V]) quarantine() (string, error) {
	backup := fmt.Sprintf("%s.corrupt-%s", c.path, c.now().UTC().Format(backupTimeFormat))
	if err := os.Rename(c.path, backup); err != nil {
		return "", fmt.Errorf("%w: quarantine %s: %w", domain.ErrStoreIO, c.name, err)
	}
	return backup, nil
}

// persist writes records sorted by key so that files diff cleanly.
func (c *Collection[V]) persist(records map[string]V) error {
	var buf bytes.Buffer
	for _, key := range slices.Sorted(maps.Keys(records)) {
		line, err := c.codec.Marshal(records[key])
		if err != nil {
			return fmt.Errorf("%w: encode %s record %q: %w", domain.ErrStoreIO, c.name, key, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	if err := c.write(c.path, buf.Bytes(), filePerm); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrStoreIO, c.name, err)
	}
	return nil
}
