package tarantool

import (
	"github.com/tarantool/go-tablestore/row"
)

// Keys and cells travel as msgpack strings so that the space index
// compares them bytewise.

type wireCell struct {
	_msgpack struct{} `msgpack:",as_array"` //nolint:unused

	Family    string
	Qualifier string
	Value     string
}

type wireRow struct {
	_msgpack struct{} `msgpack:",as_array"` //nolint:unused

	Key   string
	Cells []wireCell
}

func newWireRow(r row.Row) wireRow {
	cells := make([]wireCell, 0, len(r.Cells))
	for _, c := range r.Cells {
		cells = append(cells, wireCell{
			Family:    string(c.Family),
			Qualifier: string(c.Qualifier),
			Value:     string(c.Value),
		})
	}

	return wireRow{Key: string(r.Key), Cells: cells}
}

func (w wireRow) asRow() row.Row {
	r := row.New([]byte(w.Key))
	for _, c := range w.Cells {
		r.AddColumn([]byte(c.Family), []byte(c.Qualifier), []byte(c.Value))
	}

	row.SortCells(r.Cells)

	return r
}
