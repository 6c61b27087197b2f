// Package pebble provides a table store backed by a Pebble database.
// All tables live in one database and are kept apart by a table name prefix.
package pebble

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/tarantool/go-tablestore/internal/embedded"
	"github.com/tarantool/go-tablestore/internal/options"
	"github.com/tarantool/go-tablestore/table"
)

const (
	defaultCacheSize    = 64 << 20
	defaultMemTableSize = 32 << 20
)

type storeOptions struct {
	cacheSize    int64
	memTableSize uint64
	inMemory     bool
}

func defaultOptions() storeOptions {
	return storeOptions{
		cacheSize:    defaultCacheSize,
		memTableSize: defaultMemTableSize,
		inMemory:     false,
	}
}

// WithCacheSize sets the block cache size in bytes.
func WithCacheSize(size int64) options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.cacheSize = size
	}
}

// WithMemTableSize sets the memtable size in bytes.
func WithMemTableSize(size uint64) options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.memTableSize = size
	}
}

// InMemory keeps the database in memory. The path is ignored.
func InMemory() options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.inMemory = true
	}
}

// Store is a table store backed by Pebble.
type Store struct {
	*embedded.Store

	db *pebble.DB
}

var _ table.Store = &Store{} //nolint:exhaustruct

// Open opens or creates a Pebble database at path.
func Open(path string, opts ...options.OptionCallback[storeOptions]) (*Store, error) {
	cfg := options.ApplyOptions(defaultOptions, opts)

	cache := pebble.NewCache(cfg.cacheSize)
	defer cache.Unref()

	pebbleOpts := &pebble.Options{ //nolint:exhaustruct
		Cache:        cache,
		MemTableSize: cfg.memTableSize,
	}
	if cfg.inMemory {
		pebbleOpts.FS = vfs.NewMem()
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database at %q: %w", path, err)
	}

	return &Store{Store: embedded.NewStore(engine{db: db}), db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close pebble database: %w", err)
	}

	return nil
}

type engine struct {
	db *pebble.DB
}

func (e engine) Get(key []byte) ([]byte, bool, error) {
	value, closer, err := e.db.Get(key)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err //nolint:wrapcheck
	}

	defer closer.Close() //nolint:errcheck

	return append([]byte{}, value...), true, nil
}

func (e engine) Write(pairs []embedded.Pair) error {
	batch := e.db.NewBatch()
	defer batch.Close() //nolint:errcheck

	for _, pair := range pairs {
		if err := batch.Set(pair.Key, pair.Value, nil); err != nil {
			return fmt.Errorf("failed to add key to batch: %w", err)
		}
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return nil
}

func (e engine) Iterate(lower, upper []byte, fn func(key, value []byte) (bool, error)) error {
	iter, err := e.db.NewIter(&pebble.IterOptions{ //nolint:exhaustruct
		LowerBound: lower,
		UpperBound: upper,
	})
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}

	defer iter.Close() //nolint:errcheck

	for valid := iter.First(); valid; valid = iter.Next() {
		value, err := iter.ValueAndErr()
		if err != nil {
			return fmt.Errorf("failed to read iterator value: %w", err)
		}

		more, err := fn(iter.Key(), value)
		if err != nil {
			return err
		}

		if !more {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator failed: %w", err)
	}

	return nil
}
