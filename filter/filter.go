// Package filter provides scan-side filters for sorted tables.
// Filters are evaluated by table drivers, either pushed down to the
// underlying store or applied to every scanned row.
package filter

// Filter represents a condition applied to the rows of a scan.
type Filter interface {
	// Type returns the kind of the filter.
	Type() Type
}

// PageFilter limits the number of rows a scan returns. Only rows accepted
// by every other filter of the scan are counted.
type PageFilter struct {
	Size int64
}

// Type implements Filter.
func (PageFilter) Type() Type { return TypePage }

// PrefixFilter accepts rows whose key begins with Prefix.
type PrefixFilter struct {
	Prefix []byte
}

// Type implements Filter.
func (PrefixFilter) Type() Type { return TypePrefix }

// ColumnValueFilter accepts rows whose column value compares to Value with
// Op. Values are compared bytewise. Rows without the column are rejected.
type ColumnValueFilter struct {
	Family    []byte
	Qualifier []byte
	Op        Op
	Value     []byte
}

// Type implements Filter.
func (ColumnValueFilter) Type() Type { return TypeColumnValue }

// ListFilter accepts rows accepted by all of its filters.
type ListFilter struct {
	Filters []Filter
}

// Type implements Filter.
func (ListFilter) Type() Type { return TypeList }

// Page creates a filter limiting a scan to size rows.
func Page(size int64) Filter {
	return PageFilter{Size: size}
}

// Prefix creates a filter accepting rows whose key begins with prefix.
func Prefix(prefix []byte) Filter {
	return PrefixFilter{Prefix: prefix}
}

// ColumnValue creates a filter comparing the value of a column.
func ColumnValue(family, qualifier []byte, op Op, value []byte) Filter {
	return ColumnValueFilter{
		Family:    family,
		Qualifier: qualifier,
		Op:        op,
		Value:     value,
	}
}

// List combines filters conjunctively. Nil filters are skipped.
func List(filters ...Filter) Filter {
	nonNil := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			nonNil = append(nonNil, f)
		}
	}

	return ListFilter{Filters: nonNil}
}
