package filter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/rowkey"
)

var (
	// ErrInvalidPageSize is returned when a page filter size is not positive.
	ErrInvalidPageSize = errors.New("page size must be positive")
	// ErrUnsupportedFilter is returned for filters of unknown types.
	ErrUnsupportedFilter = errors.New("unsupported filter")
	// ErrUnsupportedOp is returned for column value filters with unknown operations.
	ErrUnsupportedOp = errors.New("unsupported filter operation")
)

// Plan is the evaluable form of a filter tree.
type Plan struct {
	limit    int64
	prefixes [][]byte
	columns  []ColumnValueFilter
}

// Compile flattens a filter tree into a Plan. A nil filter compiles into a
// plan accepting every row without limit.
func Compile(f Filter) (Plan, error) {
	var plan Plan

	if f == nil {
		return plan, nil
	}

	if err := plan.add(f); err != nil {
		return Plan{}, err
	}

	return plan, nil
}

func (p *Plan) add(f Filter) error {
	switch typed := f.(type) {
	case PageFilter:
		if typed.Size <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidPageSize, typed.Size)
		}

		if p.limit == 0 || typed.Size < p.limit {
			p.limit = typed.Size
		}
	case PrefixFilter:
		p.prefixes = append(p.prefixes, typed.Prefix)
	case ColumnValueFilter:
		if _, ok := typed.Op.holds(0); !ok {
			return fmt.Errorf("%w: %v", ErrUnsupportedOp, typed.Op)
		}

		p.columns = append(p.columns, typed)
	case ListFilter:
		for _, nested := range typed.Filters {
			if nested == nil {
				continue
			}

			if err := p.add(nested); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedFilter, f)
	}

	return nil
}

// Limit returns the maximum number of rows to return, 0 if unlimited.
func (p Plan) Limit() int64 {
	return p.limit
}

// Full reports whether a scan that collected n rows must stop.
func (p Plan) Full(n int) bool {
	return p.limit > 0 && int64(n) >= p.limit
}

// HasRowFilters reports whether rows must be inspected after key bounds
// are applied, that is whether the plan contains column value filters.
func (p Plan) HasRowFilters() bool {
	return len(p.columns) > 0
}

// Match reports whether a row is accepted by every prefix and column filter.
func (p Plan) Match(r row.Row) bool {
	for _, prefix := range p.prefixes {
		if !bytes.HasPrefix(r.Key, prefix) {
			return false
		}
	}

	for _, column := range p.columns {
		cell, ok := r.Cell(column.Family, column.Qualifier)
		if !ok {
			return false
		}

		// Operations are validated by Compile.
		if holds, _ := column.Op.holds(bytes.Compare(cell.Value, column.Value)); !holds {
			return false
		}
	}

	return true
}

// Bounds narrows the [start, stop) scan range with the prefix filters of
// the plan. A nil start means the beginning of the table, a nil stop means
// its end. The returned range is empty (lower >= upper) when no key can
// match.
func (p Plan) Bounds(start, stop []byte) ([]byte, []byte) {
	lower, upper := start, stop

	for _, prefix := range p.prefixes {
		if bytes.Compare(prefix, lower) > 0 {
			lower = prefix
		}

		end := rowkey.PrefixEnd(prefix)
		if end != nil && (upper == nil || bytes.Compare(end, upper) < 0) {
			upper = end
		}
	}

	return lower, upper
}

// Empty reports whether the range returned by Bounds contains no key.
func Empty(lower, upper []byte) bool {
	return upper != nil && bytes.Compare(lower, upper) >= 0
}
