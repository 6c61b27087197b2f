// Package row provides the record model of a sorted, column-oriented table.
// It defines the Row and Cell types exchanged between DAOs and table drivers.
package row

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// counterSize is the length of an encoded counter value.
const counterSize = 8

// ErrInvalidCounter is returned when a cell value is not an encoded counter.
var ErrInvalidCounter = errors.New("invalid counter value")

// Cell is a single column value of a row.
type Cell struct {
	// Family is the column family the cell belongs to.
	Family []byte
	// Qualifier is the column name inside the family.
	Qualifier []byte
	// Value is the serialized cell value.
	Value []byte
}

// Row is a record of a table: a row key and the cells stored under it.
type Row struct {
	// Key is the row key. Row keys define the scan order of a table.
	Key []byte
	// Cells contains the row columns.
	Cells []Cell
}

// New creates an empty row with the given key.
func New(key []byte) Row {
	return Row{Key: key, Cells: nil}
}

// IsEmpty reports whether the row has no cells. Absent rows are empty.
func (r Row) IsEmpty() bool {
	return len(r.Cells) == 0
}

// AddColumn sets the value of a column, replacing an existing value of the
// same family and qualifier.
func (r *Row) AddColumn(family, qualifier, value []byte) {
	for i := range r.Cells {
		if bytes.Equal(r.Cells[i].Family, family) && bytes.Equal(r.Cells[i].Qualifier, qualifier) {
			r.Cells[i].Value = value
			return
		}
	}

	r.Cells = append(r.Cells, Cell{Family: family, Qualifier: qualifier, Value: value})
}

// Value returns the value of a column or nil if the row has no such column.
func (r Row) Value(family, qualifier []byte) []byte {
	cell, ok := r.Cell(family, qualifier)
	if !ok {
		return nil
	}

	return cell.Value
}

// Cell returns the cell of a column.
func (r Row) Cell(family, qualifier []byte) (Cell, bool) {
	for _, cell := range r.Cells {
		if bytes.Equal(cell.Family, family) && bytes.Equal(cell.Qualifier, qualifier) {
			return cell, true
		}
	}

	return Cell{}, false
}

// Merge applies the cells of update on top of existing, the way a put
// behaves on a column-oriented store: columns present in update are
// replaced, other columns of existing are kept. The result is sorted.
func Merge(existing, update Row) Row {
	merged := Row{
		Key:   update.Key,
		Cells: make([]Cell, 0, len(existing.Cells)+len(update.Cells)),
	}
	if merged.Key == nil {
		merged.Key = existing.Key
	}

	merged.Cells = append(merged.Cells, existing.Cells...)
	for _, cell := range update.Cells {
		merged.AddColumn(cell.Family, cell.Qualifier, cell.Value)
	}

	SortCells(merged.Cells)

	return merged
}

// SortCells orders cells by family and then by qualifier.
func SortCells(cells []Cell) {
	sort.SliceStable(cells, func(i, j int) bool {
		if c := bytes.Compare(cells[i].Family, cells[j].Family); c != 0 {
			return c < 0
		}

		return bytes.Compare(cells[i].Qualifier, cells[j].Qualifier) < 0
	})
}

// EncodeCounter encodes a counter value as 8 big-endian bytes.
func EncodeCounter(value int64) []byte {
	out := make([]byte, counterSize)
	binary.BigEndian.PutUint64(out, uint64(value)) //nolint:gosec

	return out
}

// DecodeCounter decodes a counter value produced by EncodeCounter.
// An empty value decodes to zero.
func DecodeCounter(value []byte) (int64, error) {
	switch len(value) {
	case 0:
		return 0, nil
	case counterSize:
		return int64(binary.BigEndian.Uint64(value)), nil //nolint:gosec
	default:
		return 0, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidCounter, counterSize, len(value))
	}
}

// Increment adds delta to the counter stored in a column of r and returns
// the updated row along with the new counter value.
func Increment(r Row, family, qualifier []byte, delta int64) (Row, int64, error) {
	current, err := DecodeCounter(r.Value(family, qualifier))
	if err != nil {
		return Row{}, 0, err
	}

	next := current + delta

	update := New(r.Key)
	update.AddColumn(family, qualifier, EncodeCounter(next))

	return Merge(r, update), next, nil
}
