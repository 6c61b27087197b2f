// Package cells serializes the cells of a row into a single value, for
// drivers that store one value per row key.
package cells

import (
	"fmt"

	"github.com/tarantool/go-tablestore/marshaller"
	"github.com/tarantool/go-tablestore/row"
)

type record struct {
	_msgpack struct{} `msgpack:",as_array"` //nolint:unused

	Family    []byte
	Qualifier []byte
	Value     []byte
}

//nolint:gochecknoglobals
var codec marshaller.TypedMarshaller[[]record] = marshaller.NewTypedMsgpackMarshaller[[]record]()

// EncodingError represents an error that occurs while encoding row cells.
type EncodingError struct {
	Key []byte
	Err error
}

// Error returns the error message.
func (e EncodingError) Error() string {
	return fmt.Sprintf("failed to encode cells of row %q: %s", e.Key, e.Err)
}

func (e EncodingError) Unwrap() error {
	return e.Err
}

// DecodingError represents an error that occurs while decoding row cells.
type DecodingError struct {
	Key []byte
	Err error
}

// Error returns the error message.
func (e DecodingError) Error() string {
	return fmt.Sprintf("failed to decode cells of row %q: %s", e.Key, e.Err)
}

func (e DecodingError) Unwrap() error {
	return e.Err
}

// Encode serializes the cells of a row.
func Encode(r row.Row) ([]byte, error) {
	records := make([]record, 0, len(r.Cells))
	for _, cell := range r.Cells {
		records = append(records, record{
			Family:    cell.Family,
			Qualifier: cell.Qualifier,
			Value:     cell.Value,
		})
	}

	data, err := codec.Marshal(records)
	if err != nil {
		return nil, EncodingError{Key: r.Key, Err: err}
	}

	return data, nil
}

// Decode rebuilds a row from its key and serialized cells.
func Decode(key, data []byte) (row.Row, error) {
	records, err := codec.Unmarshal(data)
	if err != nil {
		return row.Row{}, DecodingError{Key: key, Err: err}
	}

	r := row.Row{Key: key, Cells: make([]row.Cell, 0, len(records))}
	for _, rec := range records {
		r.Cells = append(r.Cells, row.Cell{
			Family:    rec.Family,
			Qualifier: rec.Qualifier,
			Value:     rec.Value,
		})
	}

	row.SortCells(r.Cells)

	return r, nil
}
