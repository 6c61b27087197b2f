// Package leveldb provides a table store backed by a LevelDB database.
package leveldb

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/tarantool/go-tablestore/internal/embedded"
	"github.com/tarantool/go-tablestore/internal/options"
	"github.com/tarantool/go-tablestore/table"
)

type storeOptions struct {
	blockCacheCapacity int
	syncWrites         bool
}

func defaultOptions() storeOptions {
	return storeOptions{
		blockCacheCapacity: 8 * opt.MiB,
		syncWrites:         true,
	}
}

// WithBlockCacheCapacity sets the block cache capacity in bytes.
func WithBlockCacheCapacity(capacity int) options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.blockCacheCapacity = capacity
	}
}

// WithoutSync disables fsync on writes.
func WithoutSync() options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.syncWrites = false
	}
}

// Store is a table store backed by LevelDB.
type Store struct {
	*embedded.Store

	db *leveldb.DB
}

var _ table.Store = &Store{} //nolint:exhaustruct

// OpenFile opens or creates a database in the directory path.
func OpenFile(path string, opts ...options.OptionCallback[storeOptions]) (*Store, error) {
	cfg := options.ApplyOptions(defaultOptions, opts)

	db, err := leveldb.OpenFile(path, &opt.Options{ //nolint:exhaustruct
		BlockCacheCapacity: cfg.blockCacheCapacity,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database at %q: %w", path, err)
	}

	return newStore(db, cfg), nil
}

// OpenMemory opens a database kept in memory.
func OpenMemory(opts ...options.OptionCallback[storeOptions]) (*Store, error) {
	cfg := options.ApplyOptions(defaultOptions, opts)

	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory leveldb database: %w", err)
	}

	return newStore(db, cfg), nil
}

func newStore(db *leveldb.DB, cfg storeOptions) *Store {
	e := engine{db: db, write: &opt.WriteOptions{Sync: cfg.syncWrites}} //nolint:exhaustruct

	return &Store{Store: embedded.NewStore(e), db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close leveldb database: %w", err)
	}

	return nil
}

type engine struct {
	db    *leveldb.DB
	write *opt.WriteOptions
}

func (e engine) Get(key []byte) ([]byte, bool, error) {
	value, err := e.db.Get(key, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err //nolint:wrapcheck
	}

	return value, true, nil
}

func (e engine) Write(pairs []embedded.Pair) error {
	batch := new(leveldb.Batch)
	for _, pair := range pairs {
		batch.Put(pair.Key, pair.Value)
	}

	if err := e.db.Write(batch, e.write); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}

	return nil
}

func (e engine) Iterate(lower, upper []byte, fn func(key, value []byte) (bool, error)) error {
	iter := e.db.NewIterator(&util.Range{Start: lower, Limit: upper}, nil)
	defer iter.Release()

	for iter.Next() {
		more, err := fn(iter.Key(), iter.Value())
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
