// Package memory provides an in-memory implementation of sorted tables
// for demonstration and tests.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

// Store is a thread-safe set of in-memory tables.
// Tables are created on first access.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*rows
}

// rows holds the rows of a table sorted by key.
type rows struct {
	sorted []row.Row
}

var (
	_ table.Store = &Store{} //nolint:exhaustruct
	_ table.Table = &Table{} //nolint:exhaustruct
)

// New creates an empty store.
func New() *Store {
	return &Store{
		mu:     sync.RWMutex{},
		tables: make(map[string]*rows),
	}
}

// Table returns the table with the given name.
func (s *Store) Table(name string) (table.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", table.ErrInvalidTableName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tables[name]; !ok {
		s.tables[name] = &rows{sorted: nil}
	}

	return &Table{name: name, store: s}, nil
}

// Table is an in-memory table.
type Table struct {
	name  string
	store *Store
}

// Name implements table.Table.
func (t *Table) Name() string {
	return t.name
}

// Get implements table.Table.
func (t *Table) Get(ctx context.Context, key []byte) (row.Row, error) {
	if err := ctx.Err(); err != nil {
		return row.Row{}, fmt.Errorf("failed to get row: %w", err)
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	data := t.store.tables[t.name]

	idx, found := data.search(key)
	if !found {
		return row.Row{}, nil
	}

	return clone(data.sorted[idx]), nil
}

// Put implements table.Table.
func (t *Table) Put(ctx context.Context, r row.Row) error {
	return t.PutBatch(ctx, []row.Row{r})
}

// PutBatch implements table.Table. The batch is applied atomically.
func (t *Table) PutBatch(ctx context.Context, batch []row.Row) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to put rows: %w", err)
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	data := t.store.tables[t.name]
	for _, r := range batch {
		data.merge(clone(r))
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

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	data := t.store.tables[t.name]
	idx, _ := data.search(lower)

	result := make([]row.Row, 0)

	for ; idx < len(data.sorted) && !plan.Full(len(result)); idx++ {
		current := data.sorted[idx]
		if upper != nil && bytes.Compare(current.Key, upper) >= 0 {
			break
		}

		if plan.Match(current) {
			result = append(result, clone(current))
		}
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

	data := t.store.tables[t.name]

	current := row.New(cloneBytes(key))
	if idx, found := data.search(key); found {
		current = data.sorted[idx]
	}

	updated, value, err := row.Increment(current, cloneBytes(family), cloneBytes(qualifier), delta)
	if err != nil {
		return 0, fmt.Errorf("failed to increment %q: %w", key, err)
	}

	data.merge(updated)

	return value, nil
}

// search returns the position of key in the table and whether it's present.
func (r *rows) search(key []byte) (int, bool) {
	idx := sort.Search(len(r.sorted), func(i int) bool {
		return bytes.Compare(r.sorted[i].Key, key) >= 0
	})

	return idx, idx < len(r.sorted) && bytes.Equal(r.sorted[idx].Key, key)
}

// merge writes a row, merging it into an existing row with the same key.
func (r *rows) merge(update row.Row) {
	idx, found := r.search(update.Key)
	if found {
		r.sorted[idx] = row.Merge(r.sorted[idx], update)
		return
	}

	row.SortCells(update.Cells)

	r.sorted = append(r.sorted, row.Row{})
	copy(r.sorted[idx+1:], r.sorted[idx:])
	r.sorted[idx] = update
}

func clone(r row.Row) row.Row {
	out := row.Row{Key: cloneBytes(r.Key), Cells: make([]row.Cell, 0, len(r.Cells))}
	for _, cell := range r.Cells {
		out.Cells = append(out.Cells, row.Cell{
			Family:    cloneBytes(cell.Family),
			Qualifier: cloneBytes(cell.Qualifier),
			Value:     cloneBytes(cell.Value),
		})
	}

	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	return append(make([]byte, 0, len(b)), b...)
}
