// Package table defines the interface of sorted, column-oriented tables.
// Table drivers implement it on top of concrete key-value stores; DAOs
// consume it without knowing the store behind it.
package table

import (
	"context"
	"errors"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/row"
)

// ErrInvalidTableName is returned by stores for names they cannot host.
var ErrInvalidTableName = errors.New("invalid table name")

// Scan describes a forward range scan.
type Scan struct {
	// Start is the inclusive lower bound, nil for the beginning of the table.
	Start []byte
	// Stop is the exclusive upper bound, nil for the end of the table.
	Stop []byte
	// Filter is applied to every row in range, nil accepts all rows.
	Filter filter.Filter
}

// Table is a sorted table of rows. Rows are ordered by key with
// bytes.Compare and scans only move forward.
type Table interface {
	// Name returns the table name.
	Name() string

	// Get returns the row stored under key. An absent row is returned as an
	// empty row and is not an error.
	Get(ctx context.Context, key []byte) (row.Row, error)

	// Put writes the cells of a row, replacing cells of the same columns
	// and keeping the other columns of an existing row.
	Put(ctx context.Context, r row.Row) error

	// PutBatch writes several rows in one request. The batch is a network
	// optimization: drivers don't guarantee it is applied atomically.
	PutBatch(ctx context.Context, rows []row.Row) error

	// Scan returns the rows of the scan range accepted by the scan filter,
	// in ascending key order.
	Scan(ctx context.Context, scan Scan) ([]row.Row, error)

	// Increment atomically adds delta to the counter stored in a column and
	// returns the new value. A missing counter starts at zero.
	Increment(ctx context.Context, key, family, qualifier []byte, delta int64) (int64, error)
}

// Store opens tables by name.
type Store interface {
	// Table returns the table with the given name.
	Table(name string) (Table, error)
}
