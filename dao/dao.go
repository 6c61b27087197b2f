// Package dao implements a generic paginated data access object over sorted
// column-oriented tables.
//
// A DAO stores objects in a primary table through a Codec and keeps two
// kinds of bookkeeping next to it: a row count and an identifier sequence
// in a counters table, and optionally a reverse index whose keys invert the
// primary order so that backward pages can be read with forward scans.
// The primary write and the bookkeeping writes are independent: a failure
// after the primary write is reported as a PartialWriteError and nothing is
// rolled back.
package dao

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tarantool/go-option"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/internal/options"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

var (
	counterFamily       = []byte("c") //nolint:gochecknoglobals
	countQualifier      = []byte("c") //nolint:gochecknoglobals
	identifierQualifier = []byte("i") //nolint:gochecknoglobals
	reverseFamily       = []byte("k") //nolint:gochecknoglobals
	reverseQualifier    = []byte("r") //nolint:gochecknoglobals
)

// DAO reads and writes objects of type V identified by keys of type K.
// It holds no mutable state and is safe for concurrent use when its tables are.
type DAO[K, V any] struct {
	codec     Codec[K, V]
	primary   table.Table
	counters  table.Table
	reverse   table.Table
	logger    zerolog.Logger
	scanLimit int64
}

// New creates a DAO storing objects in primary and counters in counters.
func New[K, V any](codec Codec[K, V], primary, counters table.Table, opts ...Option) (*DAO[K, V], error) {
	cfg := options.ApplyOptions(defaultOptions, opts)

	switch {
	case codec == nil:
		return nil, illegalArgument("codec is nil")
	case primary == nil:
		return nil, illegalArgument("primary table is nil")
	case counters == nil:
		return nil, illegalArgument("counters table is nil")
	case cfg.scanLimit <= 0:
		return nil, illegalArgument("scan limit %d is not positive", cfg.scanLimit)
	}

	return &DAO[K, V]{
		codec:     codec,
		primary:   primary,
		counters:  counters,
		reverse:   cfg.reverse,
		logger:    cfg.logger.With().Str("table", primary.Name()).Logger(),
		scanLimit: cfg.scanLimit,
	}, nil
}

// HasReverseIndex reports whether the DAO maintains a reverse index.
func (d *DAO[K, V]) HasReverseIndex() bool {
	return d.reverse != nil
}

// Put writes an object, increments the row count and, with a reverse
// index, writes the reverse entry and increments its row count.
func (d *DAO[K, V]) Put(ctx context.Context, object V) error {
	return d.put(ctx, []V{object})
}

// PutBatch writes objects in one batch and increments the row counts by
// the batch size once. An empty batch writes nothing.
func (d *DAO[K, V]) PutBatch(ctx context.Context, objects []V) error {
	if len(objects) == 0 {
		return nil
	}

	return d.put(ctx, objects)
}

func (d *DAO[K, V]) put(ctx context.Context, objects []V) error {
	rows := make([]row.Row, 0, len(objects))

	for _, object := range objects {
		r, err := d.codec.Row(object)
		if err != nil {
			return &CodecError{Op: "encode object", Err: err}
		}

		rows = append(rows, r)
	}

	var entries []row.Row
	if d.reverse != nil {
		entries = make([]row.Row, 0, len(objects))
		for _, object := range objects {
			entries = append(entries, d.reverseEntry(object))
		}
	}

	delta := int64(len(rows))

	if err := d.write(ctx, d.primary, rows); err != nil {
		return d.fail(err, "primary write failed")
	}

	if _, err := d.increment(ctx, d.primary.Name(), countQualifier, delta); err != nil {
		return d.fail(&PartialWriteError{Step: StepCounter, Err: err}, "row counter increment failed")
	}

	if d.reverse != nil {
		if err := d.write(ctx, d.reverse, entries); err != nil {
			return d.fail(&PartialWriteError{Step: StepReverseIndex, Err: err}, "reverse index write failed")
		}

		if _, err := d.increment(ctx, d.reverse.Name(), countQualifier, delta); err != nil {
			return d.fail(&PartialWriteError{Step: StepReverseCounter, Err: err}, "reverse counter increment failed")
		}
	}

	d.logger.Debug().Int64("rows", delta).Bool("reverse", d.reverse != nil).Msg("rows written")

	return nil
}

func (d *DAO[K, V]) reverseEntry(object V) row.Row {
	entry := row.New(d.codec.ReverseRowKeyOf(object))
	entry.AddColumn(reverseFamily, reverseQualifier, d.codec.RowKeyOf(object))

	return entry
}

func (d *DAO[K, V]) write(ctx context.Context, tbl table.Table, rows []row.Row) error {
	if len(rows) == 1 {
		if err := tbl.Put(ctx, rows[0]); err != nil {
			return errIO("put row to", tbl.Name(), err)
		}

		return nil
	}

	if err := tbl.PutBatch(ctx, rows); err != nil {
		return errIO("put batch to", tbl.Name(), err)
	}

	return nil
}

func (d *DAO[K, V]) increment(ctx context.Context, target string, qualifier []byte, delta int64) (int64, error) {
	value, err := d.counters.Increment(ctx, []byte(target), counterFamily, qualifier, delta)
	if err != nil {
		return 0, errIO("increment counter of "+target+" in", d.counters.Name(), err)
	}

	return value, nil
}

func (d *DAO[K, V]) fail(err error, msg string) error {
	d.logger.Error().Err(err).Msg(msg)

	return err
}

// Get returns the object stored under key or None if there is none.
func (d *DAO[K, V]) Get(ctx context.Context, key K) (option.Generic[V], error) {
	r, err := d.primary.Get(ctx, d.codec.RowKey(key))
	switch {
	case err != nil:
		return option.None[V](), d.fail(errIO("get row from", d.primary.Name(), err), "get failed")
	case r.IsEmpty():
		return option.None[V](), nil
	}

	object, err := d.codec.Object(r)
	if err != nil {
		return option.None[V](), &CodecError{Op: "decode row", Err: err}
	}

	return option.Some(object), nil
}

// Count returns the number of objects put through DAOs of the primary
// table, 0 if nothing was ever put.
func (d *DAO[K, V]) Count(ctx context.Context) (int64, error) {
	return d.count(ctx, d.primary.Name())
}

// ReverseCount returns the number of entries put to the reverse index.
func (d *DAO[K, V]) ReverseCount(ctx context.Context) (int64, error) {
	if d.reverse == nil {
		return 0, illegalState("no reverse index configured")
	}

	return d.count(ctx, d.reverse.Name())
}

func (d *DAO[K, V]) count(ctx context.Context, target string) (int64, error) {
	r, err := d.counters.Get(ctx, []byte(target))
	if err != nil {
		return 0, d.fail(errIO("get counter of "+target+" from", d.counters.Name(), err), "count failed")
	}

	value, err := row.DecodeCounter(r.Value(counterFamily, countQualifier))
	if err != nil {
		return 0, &CodecError{Op: "decode counter of " + target, Err: err}
	}

	return value, nil
}

// NextIdentifier increments the identifier sequence of the primary table
// and returns its new value. Identifiers are never reused; an identifier
// is lost when the operation using it fails.
func (d *DAO[K, V]) NextIdentifier(ctx context.Context) (int64, error) {
	value, err := d.increment(ctx, d.primary.Name(), identifierQualifier, 1)
	if err != nil {
		return 0, d.fail(err, "identifier increment failed")
	}

	return value, nil
}

// Scan returns the objects of rows matching every filter, at most the
// scan limit of them. At least one filter is required.
func (d *DAO[K, V]) Scan(ctx context.Context, filters ...filter.Filter) ([]V, error) {
	given := make([]filter.Filter, 0, len(filters)+1)

	for _, f := range filters {
		if f != nil {
			given = append(given, f)
		}
	}

	if len(given) == 0 {
		return nil, illegalArgument("scan requires at least one filter")
	}

	combined := filter.List(append(given, filter.Page(d.scanLimit))...)

	if _, err := filter.Compile(combined); err != nil {
		return nil, illegalArgument("invalid scan filter: %s", err)
	}

	rows, err := d.primary.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: combined})
	if err != nil {
		return nil, d.fail(errIO("scan", d.primary.Name(), err), "scan failed")
	}

	d.logger.Debug().Int("rows", len(rows)).Msg("filtered scan")

	return d.objects(rows)
}

func (d *DAO[K, V]) objects(rows []row.Row) ([]V, error) {
	out := make([]V, 0, len(rows))

	for _, r := range rows {
		object, err := d.codec.Object(r)
		if err != nil {
			return nil, &CodecError{Op: "decode row", Err: err}
		}

		out = append(out, object)
	}

	return out, nil
}
