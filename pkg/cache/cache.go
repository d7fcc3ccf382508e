// Package cache stores check outcomes in a bbolt database so unchanged files
// are not read again.
package cache

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/yaklabco/gocif/pkg/check"
	"github.com/yaklabco/gocif/pkg/config"
	"github.com/yaklabco/gocif/pkg/fsutil"
)

// formatVersion is bumped whenever the stored entry layout changes.
const formatVersion = 1

//nolint:gochecknoglobals // bucket name
var bucketOutcomes = []byte("outcomes")

// ErrClosed is returned by operations on a closed Cache.
var ErrClosed = errors.New("cache is closed")

// Options configures Open.
type Options struct {
	// Fingerprint identifies the settings outcomes depend on. Entries written
	// under another fingerprint are misses. See Fingerprint.
	Fingerprint [32]byte

	// Timeout bounds the wait for the database file lock. Zero waits 5s.
	Timeout time.Duration

	// NoSync skips fsync on commit. Meant for tests.
	NoSync bool
}

// Cache is a persistent map from absolute file path to check outcome.
// It is safe for concurrent use.
type Cache struct {
	db          *bbolt.DB
	fingerprint [32]byte
}

type entry struct {
	Version     int            `msgpack:"v"`
	Fingerprint []byte         `msgpack:"f"`
	Size        int64          `msgpack:"s"`
	ModTime     int64          `msgpack:"m"`
	Hash        []byte         `msgpack:"h"`
	Outcome     *check.Outcome `msgpack:"o"`
}

// DefaultPath returns the cache file under the user cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("user cache dir: %w", err)
	}
	return filepath.Join(dir, "gocif", "cache.db"), nil
}

// Open opens or creates the cache database at path.
func Open(path string, opts Options) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	bopt := *bbolt.DefaultOptions
	bopt.Timeout = opts.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 5 * time.Second
	}
	bopt.NoSync = opts.NoSync
	bopt.FreelistType = bbolt.FreelistMapType

	db, err := bbolt.Open(path, 0o644, &bopt)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOutcomes)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}

	return &Cache{db: db, fingerprint: opts.Fingerprint}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the stored outcome for path if info still describes the file
// it was computed from: same size, modification time and content hash.
func (c *Cache) Get(path string, info *fsutil.FileInfo) (*check.Outcome, bool, error) {
	key, err := keyFor(path)
	if err != nil {
		return nil, false, err
	}

	var raw []byte
	err = c.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketOutcomes).Get(key); v != nil {
			raw = slices.Clone(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, c.wrap("get", err)
	}
	if raw == nil {
		return nil, false, nil
	}

	var e entry
	if err := msgpack.Unmarshal(raw, &e); err != nil {
		// Unreadable entries are treated as misses and overwritten later.
		return nil, false, nil //nolint:nilerr // stale layout
	}

	if !c.matches(&e, info) {
		return nil, false, nil
	}

	e.Outcome.Cached = true
	return e.Outcome, true, nil
}

// Put stores outcome for path. info must carry the content hash.
func (c *Cache) Put(path string, info *fsutil.FileInfo, outcome *check.Outcome) error {
	key, err := keyFor(path)
	if err != nil {
		return err
	}

	raw, err := msgpack.Marshal(&entry{
		Version:     formatVersion,
		Fingerprint: c.fingerprint[:],
		Size:        info.Size,
		ModTime:     info.ModTime.UnixNano(),
		Hash:        info.Hash[:],
		Outcome:     outcome,
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	err = c.db.Batch(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOutcomes).Put(key, raw)
	})
	return c.wrap("put", err)
}

// Delete removes the entry for path.
func (c *Cache) Delete(path string) error {
	key, err := keyFor(path)
	if err != nil {
		return err
	}
	return c.wrap("delete", c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOutcomes).Delete(key)
	}))
}

// Len returns the number of stored entries.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketOutcomes).Stats().KeyN
		return nil
	})
	return n, c.wrap("len", err)
}

// Prune removes entries whose file no longer exists and returns how many
// were removed.
func (c *Cache) Prune() (int, error) {
	var stale [][]byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOutcomes).ForEach(func(k, _ []byte) error {
			if _, err := os.Stat(string(k)); errors.Is(err, os.ErrNotExist) {
				stale = append(stale, slices.Clone(k))
			}
			return nil
		})
	})
	if err != nil {
		return 0, c.wrap("prune", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOutcomes)
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, c.wrap("prune", err)
	}
	return len(stale), nil
}

func (c *Cache) matches(e *entry, info *fsutil.FileInfo) bool {
	return e.Version == formatVersion &&
		e.Outcome != nil &&
		bytes.Equal(e.Fingerprint, c.fingerprint[:]) &&
		e.Size == info.Size &&
		e.ModTime == info.ModTime.UnixNano() &&
		bytes.Equal(e.Hash, info.Hash[:])
}

func (c *Cache) wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return fmt.Errorf("cache %s: %w", op, ErrClosed)
	default:
		return fmt.Errorf("cache %s: %w", op, err)
	}
}

func keyFor(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cache key for %s: %w", path, err)
	}
	return []byte(abs), nil
}

// Fingerprint hashes the settings that change a file's outcome: the input
// format, strictness and schema.
func Fingerprint(cfg *config.Config) [32]byte {
	type schemaEntry struct {
		Category string   `msgpack:"c"`
		Keywords []string `msgpack:"k"`
	}
	key := struct {
		Format config.InputFormat `msgpack:"f"`
		Strict bool               `msgpack:"s"`
		Schema []schemaEntry      `msgpack:"c"`
	}{Format: cfg.Format, Strict: cfg.Strict}

	for _, category := range cfg.SchemaCategories() {
		key.Schema = append(key.Schema, schemaEntry{
			Category: category,
			Keywords: cfg.Schema[category],
		})
	}

	raw, err := msgpack.Marshal(&key)
	if err != nil {
		// Plain structs of strings always encode.
		panic(fmt.Sprintf("cache: fingerprint: %v", err))
	}
	return sha256.Sum256(raw)
}
