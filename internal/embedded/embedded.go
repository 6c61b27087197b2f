// Package embedded implements sorted tables on top of an embedded ordered
// key-value engine. Many tables share one engine: every physical key is the
// table name, a zero byte and the row key.
package embedded

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/internal/cells"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

const separator = 0x00

// Pair is a key-value pair written to an engine.
type Pair struct {
	Key   []byte
	Value []byte
}

// Engine is an ordered key-value engine.
type Engine interface {
	// Get returns the value of key and whether it exists.
	Get(key []byte) ([]byte, bool, error)
	// Write atomically sets all pairs.
	Write(pairs []Pair) error
	// Iterate calls fn for the keys of [lower, upper) in ascending order
	// until fn returns false. A nil upper bound means no upper bound.
	// Slices passed to fn are only valid during the call.
	Iterate(lower, upper []byte, fn func(key, value []byte) (bool, error)) error
}

// Store hosts tables in an engine. Writes are serialized so that merges
// and increments are atomic.
type Store struct {
	engine Engine
	mu     sync.Mutex
}

var _ table.Store = &Store{} //nolint:exhaustruct

// NewStore creates a store on top of an engine.
func NewStore(engine Engine) *Store {
	return &Store{engine: engine, mu: sync.Mutex{}}
}

// Table returns the table with the given name.
func (s *Store) Table(name string) (table.Table, error) {
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: empty name", table.ErrInvalidTableName)
	case bytes.IndexByte([]byte(name), separator) >= 0:
		return nil, fmt.Errorf("%w: %q contains a zero byte", table.ErrInvalidTableName, name)
	}

	prefix := append([]byte(name), separator)

	return &Table{name: name, prefix: prefix, store: s}, nil
}

// Table is a table stored in an engine.
type Table struct {
	name   string
	prefix []byte
	store  *Store
}

// Name implements table.Table.
func (t *Table) Name() string {
	return t.name
}

func (t *Table) physical(key []byte) []byte {
	out := make([]byte, 0, len(t.prefix)+len(key))
	out = append(out, t.prefix...)

	return append(out, key...)
}

func (t *Table) get(key []byte) (row.Row, error) {
	value, ok, err := t.store.engine.Get(t.physical(key))
	switch {
	case err != nil:
		return row.Row{}, fmt.Errorf("failed to read row %q of %s: %w", key, t.name, err)
	case !ok:
		return row.New(key), nil
	}

	return cells.Decode(key, value)
}

// Get implements table.Table.
func (t *Table) Get(ctx context.Context, key []byte) (row.Row, error) {
	if err := ctx.Err(); err != nil {
		return row.Row{}, fmt.Errorf("failed to get row: %w", err)
	}

	r, err := t.get(key)
	if err != nil {
		return row.Row{}, err
	}

	if r.IsEmpty() {
		return row.Row{}, nil
	}

	return r, nil
}

// Put implements table.Table.
func (t *Table) Put(ctx context.Context, r row.Row) error {
	return t.PutBatch(ctx, []row.Row{r})
}

// PutBatch implements table.Table. The batch is written atomically.
func (t *Table) PutBatch(ctx context.Context, rows []row.Row) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to put rows: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	pending := make(map[string]row.Row, len(rows))
	order := make([]string, 0, len(rows))

	for _, update := range rows {
		key := string(update.Key)

		existing, ok := pending[key]
		if !ok {
			var err error

			existing, err = t.get(update.Key)
			if err != nil {
				return err
			}

			order = append(order, key)
		}

		pending[key] = row.Merge(existing, update)
	}

	pairs := make([]Pair, 0, len(order))

	for _, key := range order {
		data, err := cells.Encode(pending[key])
		if err != nil {
			return err
		}

		pairs = append(pairs, Pair{Key: t.physical([]byte(key)), Value: data})
	}

	if err := t.store.engine.Write(pairs); err != nil {
		return fmt.Errorf("failed to write %d rows to %s: %w", len(pairs), t.name, err)
	}

	return nil
}

// Scan implements table.Table.
func (t *Table) Scan(ctx context.Context, scan table.Scan) ([]row.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}

	plan, err := filter.Compile(scan.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scan filter: %w", err)
	}

	lower, upper := plan.Bounds(scan.Start, scan.Stop)
	if filter.Empty(lower, upper) {
		return []row.Row{}, nil
	}

	physicalUpper := append(append([]byte{}, t.name...), separator+1)
	if upper != nil {
		physicalUpper = t.physical(upper)
	}

	result := make([]row.Row, 0)

	err = t.store.engine.Iterate(t.physical(lower), physicalUpper, func(key, value []byte) (bool, error) {
		rowKey := append([]byte{}, key[len(t.prefix):]...)

		r, err := cells.Decode(rowKey, value)
		if err != nil {
			return false, err
		}

		if plan.Match(r) {
			result = append(result, r)
		}

		return !plan.Full(len(result)), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", t.name, err)
	}

	return result, nil
}

// Increment implements table.Table.
func (t *Table) Increment(ctx context.Context, key, family, qualifier []byte, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("failed to increment: %w", err)
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	current, err := t.get(key)
	if err != nil {
		return 0, err
	}

	updated, value, err := row.Increment(current, family, qualifier, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to increment %q of %s: %w", key, t.name, err)
	}

	data, err := cells.Encode(updated)
	if err != nil {
		return 0, err
	}

	if err := t.store.engine.Write([]Pair{{Key: t.physical(key), Value: data}}); err != nil {
		return 0, fmt.Errorf("failed to write counter %q of %s: %w", key, t.name, err)
	}

	return value, nil
}
