// Package etcd provides a table store on top of etcd.
// Every cell is stored under its own etcd key built from the table name,
// the row key, the family and the qualifier with an order-preserving
// encoding, so etcd key order matches row order.
package etcd

import (
	"context"
	"errors"
	"fmt"

	etcd "go.etcd.io/etcd/client/v3"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/internal/options"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/rowkey"
	"github.com/tarantool/go-tablestore/table"
)

const (
	defaultRoot      = "/tablestore"
	defaultBatchSize = 128
)

var (
	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size")
	// ErrMalformedKey is returned when an etcd key of a table cannot be decoded.
	ErrMalformedKey = errors.New("malformed cell key")
)

// Client defines the minimal interface needed for etcd operations.
// *etcd.Client implements it.
type Client interface {
	// Get retrieves keys.
	Get(ctx context.Context, key string, opts ...etcd.OpOption) (*etcd.GetResponse, error)
	// Txn creates a new transaction.
	Txn(ctx context.Context) etcd.Txn
}

type storeOptions struct {
	root      string
	batchSize int64
}

func defaultOptions() storeOptions {
	return storeOptions{root: defaultRoot, batchSize: defaultBatchSize}
}

// WithRoot sets the key prefix under which tables are stored.
func WithRoot(root string) options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.root = root
	}
}

// WithBatchSize sets the maximum number of operations per transaction and
// of keys fetched per range request. It must not exceed the max-txn-ops
// setting of the cluster.
func WithBatchSize(size int64) options.OptionCallback[storeOptions] {
	return func(opts *storeOptions) {
		opts.batchSize = size
	}
}

// Store is a table store on etcd.
type Store struct {
	client    Client
	root      string
	batchSize int64
}

var _ table.Store = &Store{} //nolint:exhaustruct

// New creates a store using an existing etcd client.
func New(client Client, opts ...options.OptionCallback[storeOptions]) (*Store, error) {
	cfg := options.ApplyOptions(defaultOptions, opts)
	if cfg.batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, cfg.batchSize)
	}

	return &Store{client: client, root: cfg.root, batchSize: cfg.batchSize}, nil
}

// Table returns the table with the given name.
func (s *Store) Table(name string) (table.Table, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", table.ErrInvalidTableName)
	}

	prefix := rowkey.AppendString([]byte(s.root+"/"), name)

	return &Table{name: name, prefix: prefix, store: s}, nil
}

// Table is a table stored in etcd.
type Table struct {
	name   string
	prefix []byte
	store  *Store
}

// Name implements table.Table.
func (t *Table) Name() string {
	return t.name
}

func (t *Table) rowPrefix(key []byte) []byte {
	return rowkey.AppendBytes(append([]byte{}, t.prefix...), key)
}

func (t *Table) cellKey(key, family, qualifier []byte) string {
	out := rowkey.AppendBytes(t.rowPrefix(key), family)

	return string(rowkey.AppendBytes(out, qualifier))
}

// Get implements table.Table.
func (t *Table) Get(ctx context.Context, key []byte) (row.Row, error) {
	prefix := t.rowPrefix(key)

	resp, err := t.store.client.Get(ctx, string(prefix), etcd.WithRange(string(rowkey.PrefixEnd(prefix))))
	if err != nil {
		return row.Row{}, fmt.Errorf("failed to get row %q of %s: %w", key, t.name, err)
	}

	rows, err := t.group(resp.Kvs)
	switch {
	case err != nil:
		return row.Row{}, err
	case len(rows) == 0:
		return row.Row{}, nil
	}

	return rows[0], nil
}

// Put implements table.Table.
func (t *Table) Put(ctx context.Context, r row.Row) error {
	return t.PutBatch(ctx, []row.Row{r})
}

// PutBatch implements table.Table. Cells are written in transactions of at
// most the configured batch size; a batch larger than that is not atomic.
func (t *Table) PutBatch(ctx context.Context, rows []row.Row) error {
	values := map[string][]byte{}
	order := make([]string, 0)

	for _, r := range rows {
		for _, c := range r.Cells {
			key := t.cellKey(r.Key, c.Family, c.Qualifier)
			if _, ok := values[key]; !ok {
				order = append(order, key)
			}

			values[key] = c.Value
		}
	}

	for start := 0; start < len(order); start += int(t.store.batchSize) {
		end := min(start+int(t.store.batchSize), len(order))

		ops := make([]etcd.Op, 0, end-start)
		for _, key := range order[start:end] {
			ops = append(ops, etcd.OpPut(key, string(values[key])))
		}

		if _, err := t.store.client.Txn(ctx).Then(ops...).Commit(); err != nil {
			return fmt.Errorf("failed to put %d cells to %s: %w", len(ops), t.name, err)
		}
	}

	return nil
}

// Scan implements table.Table. Keys are read in chunks at the revision of
// the first chunk.
func (t *Table) Scan(ctx context.Context, scan table.Scan) ([]row.Row, error) {
	plan, err := filter.Compile(scan.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compile scan filter: %w", err)
	}

	lower, upper := plan.Bounds(scan.Start, scan.Stop)
	if filter.Empty(lower, upper) {
		return []row.Row{}, nil
	}

	from := t.prefix
	if lower != nil {
		from = t.rowPrefix(lower)
	}

	end := rowkey.PrefixEnd(t.prefix)
	if upper != nil {
		end = t.rowPrefix(upper)
	}

	result := make([]row.Row, 0)

	var revision int64

	for {
		opts := []etcd.OpOption{etcd.WithRange(string(end)), etcd.WithLimit(t.store.batchSize)}
		if revision != 0 {
			opts = append(opts, etcd.WithRev(revision))
		}

		resp, err := t.store.client.Get(ctx, string(from), opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", t.name, err)
		}

		revision = resp.Header.GetRevision()

		rows, err := t.group(resp.Kvs)
		if err != nil {
			return nil, err
		}

		if resp.More && len(rows) > 0 {
			// The last row may continue in the next chunk.
			last := rows[len(rows)-1]
			rows = rows[:len(rows)-1]

			if len(rows) == 0 {
				full, err := t.readRow(ctx, last.Key, revision)
				if err != nil {
					return nil, err
				}

				rows = []row.Row{full}
				from = rowkey.PrefixEnd(t.rowPrefix(last.Key))
			} else {
				from = t.rowPrefix(last.Key)
			}
		}

		for _, r := range rows {
			if !plan.Match(r) {
				continue
			}

			result = append(result, r)
			if plan.Full(len(result)) {
				return result, nil
			}
		}

		if !resp.More {
			return result, nil
		}
	}
}

func (t *Table) readRow(ctx context.Context, key []byte, revision int64) (row.Row, error) {
	prefix := t.rowPrefix(key)

	resp, err := t.store.client.Get(ctx, string(prefix),
		etcd.WithRange(string(rowkey.PrefixEnd(prefix))), etcd.WithRev(revision))
	if err != nil {
		return row.Row{}, fmt.Errorf("failed to read row %q of %s: %w", key, t.name, err)
	}

	rows, err := t.group(resp.Kvs)
	switch {
	case err != nil:
		return row.Row{}, err
	case len(rows) != 1:
		return row.Row{}, fmt.Errorf("%w: row %q of %s changed during scan", ErrMalformedKey, key, t.name)
	}

	return rows[0], nil
}

// Increment implements table.Table. The cell is updated with a
// compare-and-swap transaction retried until it succeeds.
func (t *Table) Increment(ctx context.Context, key, family, qualifier []byte, delta int64) (int64, error) {
	cellKey := t.cellKey(key, family, qualifier)

	for {
		resp, err := t.store.client.Get(ctx, cellKey)
		if err != nil {
			return 0, fmt.Errorf("failed to read counter %q of %s: %w", key, t.name, err)
		}

		var (
			current  []byte
			revision int64
		)

		if len(resp.Kvs) > 0 {
			current = resp.Kvs[0].Value
			revision = resp.Kvs[0].ModRevision
		}

		value, err := row.DecodeCounter(current)
		if err != nil {
			return 0, fmt.Errorf("failed to increment %q of %s: %w", key, t.name, err)
		}

		value += delta

		txn, err := t.store.client.Txn(ctx).
			If(etcd.Compare(etcd.ModRevision(cellKey), "=", revision)).
			Then(etcd.OpPut(cellKey, string(row.EncodeCounter(value)))).
			Commit()
		if err != nil {
			return 0, fmt.Errorf("failed to write counter %q of %s: %w", key, t.name, err)
		}

		if txn.Succeeded {
			return value, nil
		}

		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("failed to increment %q of %s: %w", key, t.name, err)
		}
	}
}
