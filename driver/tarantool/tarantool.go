// Package tarantool provides a table store on top of a Tarantool instance.
// Every table is a space managed by the server-side procedures of Script,
// which must be loaded on the instance with Setup before use.
package tarantool

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	tnt "github.com/tarantool/go-tarantool/v2"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/internal/options"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

const (
	procGet       = "tablestore.get"
	procPut       = "tablestore.put"
	procScan      = "tablestore.scan"
	procIncrement = "tablestore.increment"

	defaultChunkSize = 256
)

// Script contains the server-side procedures of the driver.
//
//go:embed tablestore.lua
var Script string

var (
	// ErrUnexpectedResponse is returned when the response from tarantool has unexpected format.
	ErrUnexpectedResponse = errors.New("unexpected response from tarantool")
	// ErrInvalidChunkSize is returned when the scan chunk size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size")
)

type storeOptions struct {
	chunkSize int64
}

func defaultOptions() storeOptions {
	return storeOptions{chunkSize: defaultChunkSize}
}

// WithChunkSize sets the number of rows fetched per round trip by scans
// that filter on column values.
func WithChunkSize(size int64) options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.chunkSize = size
	}
}

// Setup loads Script into the instance behind doer.
func Setup(ctx context.Context, doer tnt.Doer) error {
	req := tnt.NewEvalRequest(Script).Context(ctx)

	if _, err := doer.Do(req).Get(); err != nil {
		return fmt.Errorf("failed to load tablestore procedures: %w", err)
	}

	return nil
}

// Store is a table store on a Tarantool instance.
type Store struct {
	conn      tnt.Doer
	chunkSize int64
}

var _ table.Store = &Store{} //nolint:exhaustruct

// New creates a store sending requests through doer.
// tarantool.Connection and pool.ConnectionAdapter implement tarantool.Doer.
func New(doer tnt.Doer, opts ...options.OptionCallback[storeOptions]) (*Store, error) {
	cfg := options.ApplyOptions(defaultOptions, opts)
	if cfg.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, cfg.chunkSize)
	}

	return &Store{conn: doer, chunkSize: cfg.chunkSize}, nil
}

// Table returns the table stored in the space with the given name.
func (s *Store) Table(name string) (table.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", table.ErrInvalidTableName)
	}

	return &Table{name: name, store: s}, nil
}

// Table is a table stored in a Tarantool space.
type Table struct {
	name  string
	store *Store
}

// Name implements table.Table.
func (t *Table) Name() string {
	return t.name
}

func (t *Table) call(ctx context.Context, proc string, result any, args ...any) error {
	req := tnt.NewCallRequest(proc).Args(append([]any{t.name}, args...)).Context(ctx)

	if err := t.store.conn.Do(req).GetTyped(result); err != nil {
		return fmt.Errorf("failed to call %s on %s: %w", proc, t.name, err)
	}

	return nil
}

func (t *Table) callRows(ctx context.Context, proc string, args ...any) ([]row.Row, error) {
	var result [][]wireRow

	switch err := t.call(ctx, proc, &result, args...); {
	case err != nil:
		return nil, err
	case len(result) != 1:
		return nil, fmt.Errorf("%w: expected 1 response, got %d", ErrUnexpectedResponse, len(result))
	}

	rows := make([]row.Row, 0, len(result[0]))
	for _, r := range result[0] {
		rows = append(rows, r.asRow())
	}

	return rows, nil
}

// Get implements table.Table.
func (t *Table) Get(ctx context.Context, key []byte) (row.Row, error) {
	rows, err := t.callRows(ctx, procGet, string(key))
	switch {
	case err != nil:
		return row.Row{}, err
	case len(rows) > 1:
		return row.Row{}, fmt.Errorf("%w: expected at most 1 row, got %d", ErrUnexpectedResponse, len(rows))
	case len(rows) == 0:
		return row.Row{}, nil
	}

	return rows[0], nil
}

// Put implements table.Table.
func (t *Table) Put(ctx context.Context, r row.Row) error {
	return t.PutBatch(ctx, []row.Row{r})
}

// PutBatch implements table.Table. The batch is applied in one server
// transaction.
func (t *Table) PutBatch(ctx context.Context, rows []row.Row) error {
	if len(rows) == 0 {
		return nil
	}

	batch := make([]wireRow, 0, len(rows))
	for _, r := range rows {
		batch = append(batch, newWireRow(r))
	}

	var result []int64

	switch err := t.call(ctx, procPut, &result, batch); {
	case err != nil:
		return err
	case len(result) != 1 || result[0] != int64(len(rows)):
		return fmt.Errorf("%w: expected %d rows written, got %v", ErrUnexpectedResponse, len(rows), result)
	}

	return nil
}

// Scan implements table.Table. Key bounds and the page limit are applied by
// the server. Column value filters are applied locally on chunks of rows.
func (t *Table) Scan(ctx context.Context, scan table.Scan) ([]row.Row, error) {
	plan, err := filter.Compile(scan.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scan filter: %w", err)
	}

	lower, upper := plan.Bounds(scan.Start, scan.Stop)
	if filter.Empty(lower, upper) {
		return []row.Row{}, nil
	}

	var stop any
	if upper != nil {
		stop = string(upper)
	}

	if !plan.HasRowFilters() {
		return t.callRows(ctx, procScan, string(lower), stop, plan.Limit())
	}

	result := make([]row.Row, 0)
	cursor := lower

	for {
		chunk, err := t.callRows(ctx, procScan, string(cursor), stop, t.store.chunkSize)
		if err != nil {
			return nil, err
		}

		for _, r := range chunk {
			if !plan.Match(r) {
				continue
			}

			result = append(result, r)
			if plan.Full(len(result)) {
				return result, nil
			}
		}

		if int64(len(chunk)) < t.store.chunkSize {
			return result, nil
		}

		last := chunk[len(chunk)-1].Key
		cursor = append(append(make([]byte, 0, len(last)+1), last...), 0x00)
	}
}

// Increment implements table.Table.
func (t *Table) Increment(ctx context.Context, key, family, qualifier []byte, delta int64) (int64, error) {
	var result []int64

	switch err := t.call(ctx, procIncrement, &result, string(key), string(family), string(qualifier), delta); {
	case err != nil:
		return 0, err
	case len(result) != 1:
		return 0, fmt.Errorf("%w: expected 1 response, got %d", ErrUnexpectedResponse, len(result))
	}

	return result[0], nil
}
