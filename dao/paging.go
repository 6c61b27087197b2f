package dao

import (
	"context"

	"github.com/tarantool/go-option"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/table"
)

// after returns the smallest key greater than key.
func after(key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, key...)

	return append(out, 0x00)
}

// ScanForward returns up to pageSize objects following from in key order.
// With None the page starts at the beginning of the table. When the codec
// has prefix semantics the page stays inside the prefix of from.
func (d *DAO[K, V]) ScanForward(ctx context.Context, from option.Generic[K], pageSize int64) ([]V, error) {
	if pageSize <= 0 {
		return nil, illegalArgument("page size %d is not positive", pageSize)
	}

	scan := table.Scan{Start: nil, Stop: nil, Filter: nil}
	filters := make([]filter.Filter, 0, 2)

	if key, ok := from.Get(); ok {
		scan.Start = after(d.codec.RowKey(key))
		filters = append(filters, d.codec.PrefixFilter(key))
	}

	scan.Filter = filter.List(append(filters, filter.Page(pageSize))...)

	rows, err := d.primary.Scan(ctx, scan)
	if err != nil {
		return nil, d.fail(errIO("scan", d.primary.Name(), err), "forward scan failed")
	}

	d.logger.Debug().Int("rows", len(rows)).Int64("page", pageSize).Msg("forward page")

	return d.objects(rows)
}

// ScanBackward returns up to pageSize objects preceding from in key order,
// in ascending order. With None the page ends at the end of the table.
// It reads the page window from the reverse index and then the objects of
// that window from the primary table.
func (d *DAO[K, V]) ScanBackward(ctx context.Context, from option.Generic[K], pageSize int64) ([]V, error) {
	if d.reverse == nil {
		return nil, illegalState("no reverse index configured")
	}

	if pageSize <= 0 {
		return nil, illegalArgument("page size %d is not positive", pageSize)
	}

	scan := table.Scan{Start: nil, Stop: nil, Filter: nil}
	filters := make([]filter.Filter, 0, 2)

	if key, ok := from.Get(); ok {
		scan.Start = after(d.codec.ReverseRowKey(key))

		if prefixer, ok := d.codec.(ReversePrefixer[K]); ok {
			filters = append(filters, prefixer.ReversePrefixFilter(key))
		}
	}

	scan.Filter = filter.List(append(filters, filter.Page(pageSize))...)

	entries, err := d.reverse.Scan(ctx, scan)
	if err != nil {
		return nil, d.fail(errIO("scan", d.reverse.Name(), err), "reverse index scan failed")
	}

	if len(entries) == 0 {
		return []V{}, nil
	}

	high := entries[0].Value(reverseFamily, reverseQualifier)
	low := entries[len(entries)-1].Value(reverseFamily, reverseQualifier)

	if high == nil || low == nil {
		return nil, d.fail(ErrCorruptReverseIndex, "reverse index entry without row key")
	}

	rows, err := d.primary.Scan(ctx, table.Scan{Start: low, Stop: after(high), Filter: nil})
	if err != nil {
		return nil, d.fail(errIO("scan", d.primary.Name(), err), "backward range scan failed")
	}

	d.logger.Debug().Int("rows", len(rows)).Int64("page", pageSize).Msg("backward page")

	return d.objects(rows)
}
